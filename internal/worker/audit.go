// Package worker holds the background jobs that run alongside the API.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// AuditRecorder receives the failed-order count of each pass.
// *metrics.Metrics implements it.
type AuditRecorder interface {
	RecordAudit(failed int)
}

type nopRecorder struct{}

func (nopRecorder) RecordAudit(int) {}

// FailedOrder is an order whose payment or receipt failed, with the cart it
// was placed from. Cart is nil when the cart could not be read.
type FailedOrder struct {
	Order model.Order
	Cart  *model.Cart
}

// AuditResult summarizes one pass over the orders collection.
type AuditResult struct {
	Scanned int
	Skipped int
	Failed  []FailedOrder
}

// Auditor periodically scans every order and reports the ones that need a
// human: a declined or errored payment, or a charged order whose receipt
// was never delivered. It only reads; nothing is retried or repaired.
type Auditor struct {
	store    repository.Store
	logger   *slog.Logger
	interval time.Duration
	recorder AuditRecorder

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewAuditor returns an Auditor that runs every interval once started.
// An interval of zero or less disables the loop; RunOnce still works.
// recorder may be nil.
func NewAuditor(store repository.Store, logger *slog.Logger, interval time.Duration, recorder AuditRecorder) *Auditor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Auditor{
		store:    store,
		logger:   logger,
		interval: interval,
		recorder: recorder,
		done:     make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval, in the
// background, until Stop.
func (a *Auditor) Start() {
	if a.interval <= 0 {
		a.logger.Info("order audit disabled")
		return
	}
	a.startOnce.Do(func() {
		a.logger.Info("order audit starting", slog.Duration("interval", a.interval))
		a.wg.Add(1)
		go a.loop()
	})
}

// Stop ends the loop and waits for a pass in progress to finish.
func (a *Auditor) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
	a.wg.Wait()
}

func (a *Auditor) loop() {
	defer a.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-a.done
		cancel()
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("order audit failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce audits every order. Orders that cannot be read or decoded are
// skipped; only a failure to list the collection is an error.
func (a *Auditor) RunOnce(ctx context.Context) (*AuditResult, error) {
	ids, err := a.store.List(ctx, repository.Orders)
	if err != nil {
		return nil, apperror.Storage("list the orders", err)
	}

	result := &AuditResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var order model.Order
		if err := a.store.Read(ctx, repository.Orders, id, &order); err != nil {
			a.logger.Debug("audit: skipping unreadable order", slog.String("order_id", id), slog.String("error", err.Error()))
			result.Skipped++
			continue
		}
		if !wellFormed(&order) {
			a.logger.Debug("audit: skipping malformed order", slog.String("order_id", id))
			result.Skipped++
			continue
		}
		result.Scanned++

		if !order.Failed() {
			continue
		}

		failed := FailedOrder{Order: order}
		var cart model.Cart
		switch err := a.store.Read(ctx, repository.Carts, order.CartID, &cart); {
		case err == nil:
			failed.Cart = &cart
		case errors.Is(err, apperror.ErrNotFound):
			a.logger.Debug("audit: cart of failed order is gone", slog.String("order_id", id), slog.String("cart_id", order.CartID))
		default:
			a.logger.Debug("audit: reading cart", slog.String("cart_id", order.CartID), slog.String("error", err.Error()))
		}
		result.Failed = append(result.Failed, failed)
		a.logFailed(failed)
	}

	a.recorder.RecordAudit(len(result.Failed))
	a.logger.Info("order audit completed",
		slog.Int("scanned", result.Scanned),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (a *Auditor) logFailed(f FailedOrder) {
	attrs := []any{
		slog.String("order_id", f.Order.ID),
		slog.String("email", f.Order.Email),
		slog.String("cart_id", f.Order.CartID),
		slog.String("payment", string(f.Order.Payment)),
		slog.String("charge_id", f.Order.ChargeID),
		slog.String("receipt", string(f.Order.Receipt)),
		slog.String("delivery_id", f.Order.DeliveryID),
	}
	if f.Cart != nil {
		attrs = append(attrs,
			slog.Any("items", f.Cart.Items),
			slog.Float64("total", f.Cart.Total),
		)
	}
	a.logger.Warn("failed order", attrs...)
}

func wellFormed(o *model.Order) bool {
	if len(o.ID) != model.IDLength || len(o.CartID) != model.IDLength || o.Email == "" {
		return false
	}
	switch o.Payment {
	case model.PaymentPending, model.PaymentSucceeded, model.PaymentFailed:
	default:
		return false
	}
	switch o.Receipt {
	case model.ReceiptPending, model.ReceiptSent, model.ReceiptFailed:
	default:
		return false
	}
	return true
}
