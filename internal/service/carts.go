package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// CartService manages a user's active cart.
type CartService struct {
	store  repository.Store
	auth   auth.Authority
	logger *slog.Logger
	now    func() time.Time
}

func NewCartService(store repository.Store, authority auth.Authority, logger *slog.Logger) *CartService {
	return &CartService{
		store:  store,
		auth:   authority,
		logger: logger,
		now:    time.Now,
	}
}

// Create starts a new cart for the token's user and makes it their active
// cart. A previous active cart is orphaned, not deleted.
func (s *CartService) Create(ctx context.Context, tokenID string, items []model.CartItem) (*model.Cart, error) {
	items, err := validateItems(items, false)
	if err != nil {
		return nil, err
	}

	email, err := s.auth.Identify(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	user, err := readUser(ctx, s.store, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cart := &model.Cart{
		ID:        model.NewID(),
		Email:     email,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cart.Recalculate()

	if err := s.store.Create(ctx, repository.Carts, cart.ID, cart); err != nil {
		return nil, apperror.Storage("create the cart", err)
	}

	previous := user.CartID
	user.CartID = cart.ID
	user.UpdatedAt = now
	if err := s.store.Update(ctx, repository.Users, email, user); err != nil {
		return nil, apperror.Storage("update the user with the new cart id", err)
	}

	s.logger.Info("cart created",
		slog.String("email", email),
		slog.String("cart_id", cart.ID),
		slog.String("replaced_cart_id", previous),
		slog.Float64("total", cart.Total),
	)
	return cart, nil
}

// Get returns a cart. The token must be bound to the cart's owner.
func (s *CartService) Get(ctx context.Context, tokenID, id string) (*model.Cart, error) {
	id, err := validateID("id", id)
	if err != nil {
		return nil, err
	}

	cart, err := readCart(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, tokenID, cart.Email); err != nil {
		return nil, err
	}
	return cart, nil
}

// Update replaces the cart's items and recomputes its total. Only the user's
// active cart can change; a checked-out cart fails with ErrConflict.
func (s *CartService) Update(ctx context.Context, tokenID, id string, items []model.CartItem) (*model.Cart, error) {
	id, err := validateID("id", id)
	if err != nil {
		return nil, err
	}
	items, err = validateItems(items, true)
	if err != nil {
		return nil, err
	}

	cart, err := readCart(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, tokenID, cart.Email); err != nil {
		return nil, err
	}

	user, err := readUser(ctx, s.store, cart.Email)
	if err != nil {
		return nil, err
	}
	if user.CartID != cart.ID {
		return nil, apperror.InvalidState("cart " + cart.ID + " is no longer the user's active cart")
	}

	cart.Items = items
	cart.Recalculate()
	cart.UpdatedAt = s.now()
	if err := s.store.Update(ctx, repository.Carts, cart.ID, cart); err != nil {
		return nil, apperror.Storage("update the cart", err)
	}

	s.logger.Info("cart updated",
		slog.String("cart_id", cart.ID),
		slog.Int("items", len(cart.Items)),
		slog.Float64("total", cart.Total),
	)
	return cart, nil
}

func readCart(ctx context.Context, store repository.Store, id string) (*model.Cart, error) {
	var cart model.Cart
	if err := store.Read(ctx, repository.Carts, id, &cart); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("cart", id)
		}
		return nil, apperror.Storage("read the cart", err)
	}
	return &cart, nil
}

func readUser(ctx context.Context, store repository.Store, email string) (*model.User, error) {
	var user model.User
	if err := store.Read(ctx, repository.Users, email, &user); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, apperror.Storage("read the user", err)
	}
	return &user, nil
}
