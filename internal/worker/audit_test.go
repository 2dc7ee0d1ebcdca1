package worker

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cheesy-delights/internal/metrics"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
	"github.com/sakif/cheesy-delights/internal/repository/sqlite"
)

type gaugeRecorder struct{ last, calls int }

func (g *gaugeRecorder) RecordAudit(failed int) {
	g.last = failed
	g.calls++
}

func newStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func putOrder(t *testing.T, store repository.Store, id, cartID string, payment model.PaymentStatus, receipt model.ReceiptStatus) {
	t.Helper()
	o := model.NewOrder(id, "a@x.com", cartID, 20, time.Now())
	o.Payment = payment
	o.Receipt = receipt
	require.NoError(t, store.Create(context.Background(), repository.Orders, id, o))
}

func TestRunOnce(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	cart := &model.Cart{ID: "cccccccccccccccccccc", Email: "a@x.com", Items: []model.CartItem{{Name: "Margherita", Price: 10, Quantity: 2}}}
	cart.Recalculate()
	require.NoError(t, store.Create(ctx, repository.Carts, cart.ID, cart))

	putOrder(t, store, "o1oooooooooooooooooo", cart.ID, model.PaymentSucceeded, model.ReceiptSent)
	putOrder(t, store, "o2oooooooooooooooooo", cart.ID, model.PaymentFailed, model.ReceiptPending)
	putOrder(t, store, "o3oooooooooooooooooo", "dddddddddddddddddddd", model.PaymentSucceeded, model.ReceiptFailed)
	putOrder(t, store, "o4oooooooooooooooooo", cart.ID, model.PaymentPending, model.ReceiptPending)
	// Malformed: not a 20-char id and an unknown status.
	require.NoError(t, store.Create(ctx, repository.Orders, "bad", map[string]string{"id": "bad", "payment": "lost"}))

	var logs bytes.Buffer
	rec := &gaugeRecorder{}
	a := NewAuditor(store, slog.New(slog.NewTextHandler(&logs, nil)), 0, rec)

	result, err := a.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Scanned)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Failed, 2)

	assert.Equal(t, "o2oooooooooooooooooo", result.Failed[0].Order.ID)
	require.NotNil(t, result.Failed[0].Cart)
	assert.Equal(t, 20.0, result.Failed[0].Cart.Total)

	assert.Equal(t, "o3oooooooooooooooooo", result.Failed[1].Order.ID)
	assert.Nil(t, result.Failed[1].Cart, "cart of o3 does not exist")

	assert.Equal(t, 2, rec.last)
	assert.Contains(t, logs.String(), "failed order")
	assert.Contains(t, logs.String(), "order_id=o2oooooooooooooooooo")
}

func TestRunOnce_Empty(t *testing.T) {
	rec := &gaugeRecorder{}
	a := NewAuditor(newStore(t), slog.New(slog.NewTextHandler(io.Discard, nil)), 0, rec)

	result, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 1, rec.calls)
}

func TestRunOnce_NilRecorders(t *testing.T) {
	store := newStore(t)
	putOrder(t, store, "o1oooooooooooooooooo", "cccccccccccccccccccc", model.PaymentFailed, model.ReceiptPending)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var unset *metrics.Metrics
	for name, rec := range map[string]AuditRecorder{"nil interface": nil, "nil metrics": unset} {
		t.Run(name, func(t *testing.T) {
			result, err := NewAuditor(store, logger, 0, rec).RunOnce(context.Background())
			require.NoError(t, err)
			assert.Len(t, result.Failed, 1)
		})
	}
}

type chanRecorder chan int

func (c chanRecorder) RecordAudit(failed int) { c <- failed }

func TestStartStop(t *testing.T) {
	store := newStore(t)
	putOrder(t, store, "o1oooooooooooooooooo", "cccccccccccccccccccc", model.PaymentFailed, model.ReceiptPending)

	passes := make(chanRecorder, 4)
	a := NewAuditor(store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour, passes)
	a.Start()
	a.Start() // second call is a no-op

	// The first pass runs immediately, not after one interval.
	select {
	case failed := <-passes:
		assert.Equal(t, 1, failed)
	case <-time.After(5 * time.Second):
		t.Fatal("no audit pass ran")
	}

	a.Stop()
	a.Stop()
	assert.Empty(t, passes, "only one pass expected within the hour")
}

func TestStart_Disabled(t *testing.T) {
	a := NewAuditor(newStore(t), slog.New(slog.NewTextHandler(io.Discard, nil)), 0, nil)
	a.Start()
	a.Stop()
}
