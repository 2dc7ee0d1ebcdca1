package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// SignupInput is a full user profile plus the plaintext password.
type SignupInput struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Password   string `json:"password"`
}

// UpdateInput is a partial profile update. Nil fields are left alone; a
// non-nil Password is rehashed.
type UpdateInput struct {
	Email      string  `json:"email"`
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Password   *string `json:"password"`
}

// UserService handles signup, profile reads/edits, and account deletion.
type UserService struct {
	store     repository.Store
	auth      auth.Authorizer
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time
}

func NewUserService(store repository.Store, authz auth.Authorizer, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		auth:      authz,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// Create registers a new user. A second signup with the same email fails
// with ErrConflict.
func (s *UserService) Create(ctx context.Context, in SignupInput) (*model.PublicUser, error) {
	// === VALIDATION ===
	// Every field first, so a bad request never reaches the store.
	var err error
	user := &model.User{}
	fields := []struct {
		name string
		in   string
		out  *string
	}{
		{"firstName", in.FirstName, &user.FirstName},
		{"lastName", in.LastName, &user.LastName},
		{"address", in.Address, &user.Address},
		{"city", in.City, &user.City},
		{"state", in.State, &user.State},
		{"postalCode", in.PostalCode, &user.PostalCode},
	}
	for _, f := range fields {
		if *f.out, err = requireString(f.name, f.in); err != nil {
			return nil, err
		}
	}
	if user.Email, err = validateEmail(in.Email); err != nil {
		return nil, err
	}
	password, err := validatePassword(in.Password)
	if err != nil {
		return nil, err
	}

	// === PERSIST ===
	user.PasswordHash, err = s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password for %s: %w", user.Email, err)
	}
	now := s.now()
	user.Orders = []string{}
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.store.Create(ctx, repository.Users, user.Email, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("user", user.Email)
		}
		return nil, apperror.Storage("create the new user", err)
	}

	s.logger.Info("user created", slog.String("email", user.Email))
	pub := user.Public()
	return &pub, nil
}

// Get returns the profile of email. The token must be bound to email.
func (s *UserService) Get(ctx context.Context, tokenID, email string) (*model.PublicUser, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, tokenID, email); err != nil {
		return nil, err
	}

	user, err := readUser(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// Update applies a partial profile update.
func (s *UserService) Update(ctx context.Context, tokenID string, in UpdateInput) (*model.PublicUser, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}

	type change struct {
		name string
		in   *string
	}
	changes := []change{
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"address", in.Address},
		{"city", in.City},
		{"state", in.State},
		{"postalCode", in.PostalCode},
	}
	cleaned := map[string]string{}
	for _, c := range changes {
		if c.in == nil {
			continue
		}
		v, err := requireString(c.name, *c.in)
		if err != nil {
			return nil, err
		}
		cleaned[c.name] = v
	}
	var password string
	if in.Password != nil {
		if password, err = validatePassword(*in.Password); err != nil {
			return nil, err
		}
	}
	if len(cleaned) == 0 && in.Password == nil {
		return nil, apperror.ValidationFailed("", "no fields to update")
	}

	if err := s.auth.Authorize(ctx, tokenID, email); err != nil {
		return nil, err
	}

	user, err := readUser(ctx, s.store, email)
	if err != nil {
		return nil, err
	}

	targets := map[string]*string{
		"firstName":  &user.FirstName,
		"lastName":   &user.LastName,
		"address":    &user.Address,
		"city":       &user.City,
		"state":      &user.State,
		"postalCode": &user.PostalCode,
	}
	for name, v := range cleaned {
		*targets[name] = v
	}
	if in.Password != nil {
		if user.PasswordHash, err = s.passwords.Hash(password); err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", email, err)
		}
	}
	user.UpdatedAt = s.now()

	if err := s.store.Update(ctx, repository.Users, email, user); err != nil {
		return nil, apperror.Storage("update the user", err)
	}

	s.logger.Info("user updated", slog.String("email", email), slog.Bool("password_changed", in.Password != nil))
	pub := user.Public()
	return &pub, nil
}

// CascadeReport says what a user deletion removed and what it could not.
//
// The user record goes first. Each order and the active cart are then deleted
// independently: one failing never stops the others, and every failure is
// listed against the sub-resource it belongs to.
type CascadeReport struct {
	Email         string   `json:"email"`
	DeletedOrders []string `json:"deletedOrders"`
	FailedOrders  []string `json:"failedOrders,omitempty"`
	CartID        string   `json:"cartId,omitempty"`
	CartDeleted   bool     `json:"cartDeleted"`
	CartFailed    bool     `json:"cartFailed,omitempty"`
}

// Failed reports whether any sub-resource could not be deleted.
func (r *CascadeReport) Failed() bool {
	return len(r.FailedOrders) > 0 || r.CartFailed
}

// Err converts the report into an ErrStorage error naming only the
// sub-resources that failed, or nil.
func (r *CascadeReport) Err() error {
	if !r.Failed() {
		return nil
	}
	var parts []string
	if n := len(r.FailedOrders); n > 0 {
		parts = append(parts, fmt.Sprintf("%d of the user's orders (%s)", n, strings.Join(r.FailedOrders, ", ")))
	}
	if r.CartFailed {
		parts = append(parts, fmt.Sprintf("the user's active cart (%s)", r.CartID))
	}
	return &apperror.AppError{
		Err:     apperror.ErrStorage,
		Message: "user deleted, but could not delete " + strings.Join(parts, " and "),
	}
}

// Delete removes the user, then every order they placed and their active
// cart. The report is returned even when the error is non-nil so callers can
// show which sub-resources survived.
func (s *UserService) Delete(ctx context.Context, tokenID, email string) (*CascadeReport, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, tokenID, email); err != nil {
		return nil, err
	}

	user, err := readUser(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, repository.Users, email); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, apperror.Storage("delete the user", err)
	}

	report := &CascadeReport{Email: email, DeletedOrders: []string{}, CartID: user.CartID}

	for _, orderID := range user.Orders {
		if err := s.deleteOwned(ctx, repository.Orders, orderID); err != nil {
			s.logger.Error("cascade: order not deleted",
				slog.String("email", email),
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
			report.FailedOrders = append(report.FailedOrders, orderID)
			continue
		}
		report.DeletedOrders = append(report.DeletedOrders, orderID)
	}

	if user.CartID != "" {
		if err := s.deleteOwned(ctx, repository.Carts, user.CartID); err != nil {
			s.logger.Error("cascade: cart not deleted",
				slog.String("email", email),
				slog.String("cart_id", user.CartID),
				slog.String("error", err.Error()),
			)
			report.CartFailed = true
		} else {
			report.CartDeleted = true
		}
	}

	s.logger.Info("user deleted",
		slog.String("email", email),
		slog.Int("orders_deleted", len(report.DeletedOrders)),
		slog.Int("orders_failed", len(report.FailedOrders)),
		slog.Bool("cart_failed", report.CartFailed),
	)
	return report, report.Err()
}

// deleteOwned deletes a dependent record. One that is already gone counts as deleted.
func (s *UserService) deleteOwned(ctx context.Context, collection, key string) error {
	err := s.store.Delete(ctx, collection, key)
	if err == nil || errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	return err
}
