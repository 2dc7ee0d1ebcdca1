package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/notify"
	"github.com/sakif/cheesy-delights/internal/payment"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// DefaultCollaboratorTimeout bounds each payment and notification call when
// the caller does not configure one.
const DefaultCollaboratorTimeout = 10 * time.Second

// CheckoutRecorder counts checkout outcomes. *metrics.Metrics implements it.
type CheckoutRecorder interface {
	RecordCheckout(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCheckout(string) {}

// OrderService turns carts into orders and serves them back.
type OrderService struct {
	store    repository.Store
	auth     auth.Authorizer
	charger  payment.Charger
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	timeout  time.Duration
	recorder CheckoutRecorder
}

// OrderOption customizes an OrderService.
type OrderOption func(*OrderService)

// WithCollaboratorTimeout sets the per-call bound on payment and notification.
func WithCollaboratorTimeout(d time.Duration) OrderOption {
	return func(s *OrderService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRecorder reports each checkout outcome to r.
func WithRecorder(r CheckoutRecorder) OrderOption {
	return func(s *OrderService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(
	store repository.Store,
	authz auth.Authorizer,
	charger payment.Charger,
	notifier notify.Notifier,
	logger *slog.Logger,
	opts ...OrderOption,
) *OrderService {
	s := &OrderService{
		store:    store,
		auth:     authz,
		charger:  charger,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		timeout:  DefaultCollaboratorTimeout,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create checks out a cart: it opens an order, charges the card, and emails
// the receipt. See checkout for the step-by-step contract.
//
// Once an order record exists it is returned even when err is non-nil, in the
// state it reached before the failing step.
func (s *OrderService) Create(ctx context.Context, tokenID string, in CheckoutInput) (*model.Order, error) {
	c := &checkout{svc: s, tokenID: tokenID, in: in}
	order, err := c.run(ctx)
	s.recorder.RecordCheckout(outcomeOf(err))
	return order, err
}

// Get returns an order. The token must be bound to the order's owner.
func (s *OrderService) Get(ctx context.Context, tokenID, id string) (*model.Order, error) {
	id, err := validateID("id", id)
	if err != nil {
		return nil, err
	}

	order, err := readOrder(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, tokenID, order.Email); err != nil {
		return nil, err
	}
	return order, nil
}

// ListForUser returns every order the user has placed, oldest first. Order
// ids on the user that no longer resolve are skipped.
func (s *OrderService) ListForUser(ctx context.Context, tokenID, email string) ([]model.Order, error) {
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

	orders := make([]model.Order, 0, len(user.Orders))
	for _, id := range user.Orders {
		order, err := readOrder(ctx, s.store, id)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func readOrder(ctx context.Context, store repository.Store, id string) (*model.Order, error) {
	var order model.Order
	if err := store.Read(ctx, repository.Orders, id, &order); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("order", id)
		}
		return nil, apperror.Storage("read the order", err)
	}
	return &order, nil
}
