package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/notify"
	"github.com/sakif/cheesy-delights/internal/payment"
	"github.com/sakif/cheesy-delights/internal/repository"
	"github.com/sakif/cheesy-delights/internal/repository/file"
)

// =========================================================================
// FAKES
// =========================================================================
//
// The services run against a real file store in t.TempDir(). faultyStore
// wraps it so a test can make one specific operation fail, which is how the
// partial-failure paths (cascade delete, checkout persistence) are exercised.

var errDiskFull = errors.New("disk full")

type faultyStore struct {
	repository.Store

	mu    sync.Mutex
	fail  map[string]error // "op collection key", key may be "*"
	calls int
}

func (f *faultyStore) failOn(op, collection, key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op+" "+collection+" "+key] = err
}

func (f *faultyStore) check(op, collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.fail[op+" "+collection+" "+key]; ok {
		return err
	}
	if err, ok := f.fail[op+" "+collection+" *"]; ok {
		return err
	}
	return nil
}

func (f *faultyStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *faultyStore) Create(ctx context.Context, collection, key string, record any) error {
	if err := f.check("create", collection, key); err != nil {
		return err
	}
	return f.Store.Create(ctx, collection, key, record)
}

func (f *faultyStore) Read(ctx context.Context, collection, key string, out any) error {
	if err := f.check("read", collection, key); err != nil {
		return err
	}
	return f.Store.Read(ctx, collection, key, out)
}

func (f *faultyStore) Update(ctx context.Context, collection, key string, record any) error {
	if err := f.check("update", collection, key); err != nil {
		return err
	}
	return f.Store.Update(ctx, collection, key, record)
}

func (f *faultyStore) Delete(ctx context.Context, collection, key string) error {
	if err := f.check("delete", collection, key); err != nil {
		return err
	}
	return f.Store.Delete(ctx, collection, key)
}

func (f *faultyStore) List(ctx context.Context, collection string) ([]string, error) {
	if err := f.check("list", collection, "*"); err != nil {
		return nil, err
	}
	return f.Store.List(ctx, collection)
}

// fakeCharger returns chargeID or err, and remembers what it was asked.
type fakeCharger struct {
	mu       sync.Mutex
	chargeID string
	err      error
	block    bool   // wait for the context to end
	onCharge func() // called before returning
	requests []payment.ChargeRequest
}

func (f *fakeCharger) Charge(ctx context.Context, req payment.ChargeRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.onCharge != nil {
		f.onCharge()
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.chargeID, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	deliveryID string
	err        error
	receipts   []notify.Receipt
}

func (f *fakeNotifier) SendReceipt(_ context.Context, r notify.Receipt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, r)
	if f.err != nil {
		return "", f.err
	}
	return f.deliveryID, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *countingRecorder) RecordCheckout(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================

type testEnv struct {
	store    *faultyStore
	tokens   *auth.TokenService
	users    *UserService
	carts    *CartService
	orders   *OrderService
	menu     *MenuService
	charger  *fakeCharger
	notifier *fakeNotifier
	recorder *countingRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base, err := file.New(t.TempDir())
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	store := &faultyStore{Store: base, fail: map[string]error{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords := auth.NewPasswordServiceForTest(4)
	tokens := auth.NewTokenService(store, passwords)

	e := &testEnv{
		store:    store,
		tokens:   tokens,
		charger:  &fakeCharger{chargeID: "ch_test"},
		notifier: &fakeNotifier{deliveryID: "msg_test"},
		recorder: &countingRecorder{outcomes: map[string]int{}},
	}
	e.users = NewUserService(store, tokens, passwords, logger)
	e.carts = NewCartService(store, tokens, logger)
	e.menu = NewMenuService(store, logger)
	e.orders = NewOrderService(store, tokens, e.charger, e.notifier, logger,
		WithCollaboratorTimeout(time.Second),
		WithRecorder(e.recorder),
	)
	return e
}

func signupInput(email string) SignupInput {
	return SignupInput{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      email,
		Address:    "12 Analytical Row",
		City:       "London",
		State:      "LDN",
		PostalCode: "N1 9GU",
		Password:   "secret123",
	}
}

// signup creates a user and logs them in, returning the token id.
func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.users.Create(ctx, signupInput(email)); err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	token, err := e.tokens.Issue(ctx, email, "secret123")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return token.ID
}

// cart creates a cart with one {price:10, qty:2} line.
func (e *testEnv) cart(t *testing.T, tokenID string) *model.Cart {
	t.Helper()
	cart, err := e.carts.Create(context.Background(), tokenID, []model.CartItem{
		{ItemID: "p001", Name: "Margherita", Size: "large", Price: 10, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("creating cart: %v", err)
	}
	return cart
}

func validCheckout(cartID string) CheckoutInput {
	return CheckoutInput{
		CartID:     cartID,
		CardName:   "Ada Lovelace",
		CardNumber: "4242424242424242",
		CardCVC:    "123",
		ExpMonth:   12,
		ExpYear:    2030,
	}
}

func (e *testEnv) storedUser(t *testing.T, email string) *model.User {
	t.Helper()
	var u model.User
	if err := e.store.Store.Read(context.Background(), repository.Users, email, &u); err != nil {
		t.Fatalf("reading user %s: %v", email, err)
	}
	return &u
}

func (e *testEnv) storedOrder(t *testing.T, id string) *model.Order {
	t.Helper()
	var o model.Order
	if err := e.store.Store.Read(context.Background(), repository.Orders, id, &o); err != nil {
		t.Fatalf("reading order %s: %v", id, err)
	}
	return &o
}
