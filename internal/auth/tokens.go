package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// TokenTTL is how long a token lives after it is issued or extended.
const TokenTTL = time.Hour

// Authorizer is the single authorization capability every user-scoped
// operation depends on: "a valid token bound to this email".
type Authorizer interface {
	Authorize(ctx context.Context, tokenID, email string) error
}

// Authority is an Authorizer that can also name the user behind a token.
// Cart creation needs it because the request carries no email.
type Authority interface {
	Authorizer
	Identify(ctx context.Context, tokenID string) (string, error)
}

// TokenService issues and checks opaque bearer tokens kept in the record store.
//
// A token is a random id plus a stored {email, expires} record. Verifying one
// costs a store read per request, but there is no signing key to distribute.
type TokenService struct {
	store     repository.Store
	passwords *PasswordService
	now       func() time.Time
}

// compile-time check that *TokenService implements Authority
var _ Authority = (*TokenService)(nil)

func NewTokenService(store repository.Store, passwords *PasswordService) *TokenService {
	return &TokenService{
		store:     store,
		passwords: passwords,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Tests use it to expire tokens.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue logs a user in. Unknown email and wrong password both fail with the
// same Unauthorized error so callers can't probe which emails exist.
func (s *TokenService) Issue(ctx context.Context, email, password string) (*model.Token, error) {
	var user model.User
	if err := s.store.Read(ctx, repository.Users, email, &user); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("auth: reading user %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("auth: verifying password for %s: %w", email, err)
	}

	token := &model.Token{
		ID:      model.NewID(),
		Email:   email,
		Expires: s.now().Add(TokenTTL),
	}
	if err := s.store.Create(ctx, repository.Tokens, token.ID, token); err != nil {
		return nil, apperror.Storage("create the new token", err)
	}

	return token, nil
}

// Get returns the token record.
func (s *TokenService) Get(ctx context.Context, id string) (*model.Token, error) {
	var token model.Token
	if err := s.store.Read(ctx, repository.Tokens, id, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Verify reports whether id names an unexpired token bound to email.
// Any lookup failure counts as "not valid".
func (s *TokenService) Verify(ctx context.Context, id, email string) bool {
	if id == "" || email == "" {
		return false
	}
	token, err := s.Get(ctx, id)
	if err != nil {
		return false
	}
	return token.BoundTo(email, s.now())
}

// Authorize is Verify expressed as an error: Unauthorized when no token was
// presented, Forbidden when the token is unknown, expired, or bound to
// someone else.
func (s *TokenService) Authorize(ctx context.Context, tokenID, email string) error {
	if tokenID == "" {
		return apperror.Unauthorized("missing required token in header")
	}
	if !s.Verify(ctx, tokenID, email) {
		return apperror.Forbidden("token is invalid, expired, or not bound to this user")
	}
	return nil
}

// Identify returns the email of the user a valid token belongs to, with the
// same errors as Authorize.
func (s *TokenService) Identify(ctx context.Context, tokenID string) (string, error) {
	if tokenID == "" {
		return "", apperror.Unauthorized("missing required token in header")
	}
	token, err := s.Get(ctx, tokenID)
	if err != nil || !token.Valid(s.now()) {
		return "", apperror.Forbidden("token is invalid or expired")
	}
	return token.Email, nil
}

// Extend pushes an unexpired token's expiry to now + TokenTTL.
func (s *TokenService) Extend(ctx context.Context, id string) (*model.Token, error) {
	token, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !token.Valid(now) {
		return nil, apperror.Expired("token", id)
	}

	token.Expires = now.Add(TokenTTL)
	if err := s.store.Update(ctx, repository.Tokens, id, token); err != nil {
		return nil, apperror.Storage("update the token's expiration", err)
	}
	return token, nil
}

// Revoke deletes the token (logout).
func (s *TokenService) Revoke(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, repository.Tokens, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return apperror.Storage("delete the token", err)
	}
	return nil
}

func invalidCredentials() error {
	return apperror.Unauthorized("email or password is incorrect")
}
