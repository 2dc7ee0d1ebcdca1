package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/model"
)

// LoginInput is the body of a token request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ExtendInput is the body of a token extension request.
type ExtendInput struct {
	ID     string `json:"id"`
	Extend bool   `json:"extend"`
}

// TokenService exposes the auth token lifecycle to the API: input checks in
// front of auth.TokenService, and store errors translated to API errors.
//
// Tokens are bearer credentials, so reading, extending, or revoking one only
// requires knowing its id.
type TokenService struct {
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewTokenService(tokens *auth.TokenService, logger *slog.Logger) *TokenService {
	return &TokenService{tokens: tokens, logger: logger}
}

// Create logs a user in and returns a token valid for auth.TokenTTL.
func (s *TokenService) Create(ctx context.Context, in LoginInput) (*model.Token, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	password, err := validatePassword(in.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, email, password)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			s.logger.Info("login rejected", slog.String("email", email))
			return nil, err
		}
		return nil, tokenError("", "create the new token", err)
	}

	s.logger.Info("token issued", slog.String("email", email), slog.Time("expires", token.Expires))
	return token, nil
}

func (s *TokenService) Get(ctx context.Context, id string) (*model.Token, error) {
	id, err := validateID("id", id)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Get(ctx, id)
	if err != nil {
		return nil, tokenError(id, "read the token", err)
	}
	return token, nil
}

// Extend resets an unexpired token's expiry to now + auth.TokenTTL. The body
// must say extend:true; an expired token cannot be revived.
func (s *TokenService) Extend(ctx context.Context, in ExtendInput) (*model.Token, error) {
	id, err := validateID("id", in.ID)
	if err != nil {
		return nil, err
	}
	if !in.Extend {
		return nil, apperror.ValidationFailed("extend", "extend must be true")
	}

	token, err := s.tokens.Extend(ctx, id)
	if err != nil {
		return nil, tokenError(id, "read the token", err)
	}
	return token, nil
}

// Delete revokes a token.
func (s *TokenService) Delete(ctx context.Context, id string) error {
	id, err := validateID("id", id)
	if err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, id); err != nil {
		return tokenError(id, "delete the token", err)
	}
	s.logger.Info("token revoked", slog.String("token_id", id))
	return nil
}

// tokenError keeps AppErrors from the token layer, except that a missing
// record is reported against "token", and wraps anything else as a storage
// failure of step.
func tokenError(id, step string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.NotFound("token", id)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Storage(step, err)
}
