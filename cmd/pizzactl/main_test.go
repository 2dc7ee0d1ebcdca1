package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
	"github.com/sakif/cheesy-delights/internal/repository/file"
	"github.com/sakif/cheesy-delights/internal/service"
)

// seedStore writes a menu, one user, and two orders (one failed) into a
// file store and points the environment at it.
func seedStore(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")

	store, err := file.New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = service.NewMenuService(store, slog.New(slog.NewTextHandler(io.Discard, nil))).Seed(ctx)
	require.NoError(t, err)

	now := time.Now()
	cart := &model.Cart{ID: "cccccccccccccccccccc", Email: "a@x.com", Items: []model.CartItem{{Name: "Margherita", Size: "large", Price: 10, Quantity: 2}}}
	cart.Recalculate()
	require.NoError(t, store.Create(ctx, repository.Carts, cart.ID, cart))

	ok := model.NewOrder("o1oooooooooooooooooo", "a@x.com", cart.ID, 20, now)
	require.NoError(t, ok.MarkPaid("ch_1", now))
	require.NoError(t, ok.MarkReceiptSent("msg_1", now))
	require.NoError(t, store.Create(ctx, repository.Orders, ok.ID, ok))

	failed := model.NewOrder("o2oooooooooooooooooo", "a@x.com", cart.ID, 20, now)
	require.NoError(t, failed.MarkPaymentFailed(now))
	require.NoError(t, store.Create(ctx, repository.Orders, failed.ID, failed))

	user := &model.User{
		FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com",
		Address: "12 Analytical Row", City: "London", State: "LDN", PostalCode: "N1 9GU",
		PasswordHash: "$2a$04$secret", Orders: []string{ok.ID, failed.ID},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.Create(ctx, repository.Users, user.Email, user))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMenuCommands(t *testing.T) {
	seedStore(t)

	out, err := run(t, "menu", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "p001")
	assert.Contains(t, out, "Hawaiian")

	out, err = run(t, "menu", "show", "p002")
	require.NoError(t, err)
	assert.Contains(t, out, "Pepperoni")
	assert.Contains(t, out, "$15.50")

	_, err = run(t, "menu", "show", "p999")
	assert.Error(t, err)
}

func TestUsersCommands(t *testing.T) {
	seedStore(t)

	out, err := run(t, "users", "list", "--recent")
	require.NoError(t, err)
	assert.Contains(t, out, "a@x.com")

	out, err = run(t, "users", "show", "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace <a@x.com>")
	assert.Contains(t, out, "o2oooooooooooooooooo")
	assert.NotContains(t, out, "$2a$", "password hash must never be printed")

	_, err = run(t, "users", "show", "nobody@x.com")
	assert.ErrorContains(t, err, "no user with email")
}

func TestOrdersCommands(t *testing.T) {
	seedStore(t)

	out, err := run(t, "orders", "list", "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, "o2oooooooooooooooooo")
	assert.NotContains(t, out, "o1oooooooooooooooooo")

	out, err = run(t, "orders", "show", "o1oooooooooooooooooo")
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded ch_1")
	assert.Contains(t, out, "2x Margherita large")
}

func TestAuditCommand(t *testing.T) {
	seedStore(t)

	out, err := run(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "scanned 2 orders, skipped 0, 1 failed")
	assert.Contains(t, out, "o2oooooooooooooooooo")
}
