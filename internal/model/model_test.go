package model

import (
	"testing"
	"time"
)

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// =========================================================================
// ORDER STATE MACHINE
// =========================================================================

func TestOrder_HappyPath(t *testing.T) {
	o := NewOrder("o1", "a@x.com", "c1", 20, now)
	if o.Payment != PaymentPending || o.Receipt != ReceiptPending {
		t.Fatalf("new order = (%s,%s), want (pending,pending)", o.Payment, o.Receipt)
	}
	if o.Terminal() {
		t.Fatal("new order should not be terminal")
	}

	if err := o.MarkPaid("ch_1", now); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if err := o.MarkReceiptSent("msg_1", now); err != nil {
		t.Fatalf("MarkReceiptSent() error = %v", err)
	}

	if o.Payment != PaymentSucceeded || o.Receipt != ReceiptSent {
		t.Errorf("order = (%s,%s), want (succeeded,sent)", o.Payment, o.Receipt)
	}
	if o.ChargeID != "ch_1" || o.DeliveryID != "msg_1" {
		t.Errorf("refs = (%q,%q)", o.ChargeID, o.DeliveryID)
	}
	if !o.Terminal() || o.Failed() {
		t.Errorf("Terminal() = %v, Failed() = %v", o.Terminal(), o.Failed())
	}
}

func TestOrder_TransitionsNeverRevert(t *testing.T) {
	tests := []struct {
		name  string
		setup func(o *Order)
		step  func(o *Order) error
	}{
		{
			name:  "cannot pay twice",
			setup: func(o *Order) { _ = o.MarkPaid("ch", now) },
			step:  func(o *Order) error { return o.MarkPaid("ch2", now) },
		},
		{
			name:  "cannot fail payment after success",
			setup: func(o *Order) { _ = o.MarkPaid("ch", now) },
			step:  func(o *Order) error { return o.MarkPaymentFailed(now) },
		},
		{
			name:  "cannot pay after failure",
			setup: func(o *Order) { _ = o.MarkPaymentFailed(now) },
			step:  func(o *Order) error { return o.MarkPaid("ch", now) },
		},
		{
			name:  "no receipt before payment",
			setup: func(o *Order) {},
			step:  func(o *Order) error { return o.MarkReceiptSent("m", now) },
		},
		{
			name:  "no receipt after failed payment",
			setup: func(o *Order) { _ = o.MarkPaymentFailed(now) },
			step:  func(o *Order) error { return o.MarkReceiptFailed(now) },
		},
		{
			name: "sent receipt cannot become failed",
			setup: func(o *Order) {
				_ = o.MarkPaid("ch", now)
				_ = o.MarkReceiptSent("m", now)
			},
			step: func(o *Order) error { return o.MarkReceiptFailed(now) },
		},
		{
			name: "failed receipt cannot become sent",
			setup: func(o *Order) {
				_ = o.MarkPaid("ch", now)
				_ = o.MarkReceiptFailed(now)
			},
			step: func(o *Order) error { return o.MarkReceiptSent("m", now) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrder("o1", "a@x.com", "c1", 20, now)
			tt.setup(o)
			before := *o

			if err := tt.step(o); err == nil {
				t.Fatal("expected the transition to be rejected")
			}
			if o.Payment != before.Payment || o.Receipt != before.Receipt {
				t.Errorf("state changed from (%s,%s) to (%s,%s)",
					before.Payment, before.Receipt, o.Payment, o.Receipt)
			}
		})
	}
}

func TestOrder_FailedStatesAreTerminal(t *testing.T) {
	paymentFailed := NewOrder("o1", "a@x.com", "c1", 20, now)
	_ = paymentFailed.MarkPaymentFailed(now)

	receiptFailed := NewOrder("o2", "a@x.com", "c1", 20, now)
	_ = receiptFailed.MarkPaid("ch", now)
	_ = receiptFailed.MarkReceiptFailed(now)

	for _, o := range []*Order{paymentFailed, receiptFailed} {
		if !o.Terminal() || !o.Failed() {
			t.Errorf("order %s: Terminal() = %v, Failed() = %v", o.ID, o.Terminal(), o.Failed())
		}
	}
}

// =========================================================================
// CART / TOKEN / MENU
// =========================================================================

func TestCart_Recalculate(t *testing.T) {
	c := &Cart{Items: []CartItem{
		{ItemID: "p001", Size: "small", Price: 10, Quantity: 2},
		{ItemID: "p002", Size: "large", Price: 12.5, Quantity: 1},
	}}
	c.Recalculate()
	if c.Total != 32.5 {
		t.Errorf("Total = %v, want 32.5", c.Total)
	}

	c.Items = nil
	c.Recalculate()
	if c.Total != 0 {
		t.Errorf("Total after clearing = %v, want 0", c.Total)
	}
}

func TestToken_BoundTo(t *testing.T) {
	tok := &Token{ID: "t", Email: "a@x.com", Expires: now.Add(time.Minute)}

	if !tok.BoundTo("a@x.com", now) {
		t.Error("token should be valid for its own email before expiry")
	}
	if tok.BoundTo("b@x.com", now) {
		t.Error("token must not authorize another email")
	}
	if tok.BoundTo("a@x.com", now.Add(time.Minute)) {
		t.Error("token must be invalid at exactly its expiry")
	}
}

func TestMenuItem_PriceFor(t *testing.T) {
	item := &MenuItem{Prices: []Price{{Size: "small", Price: 8}, {Size: "large", Price: 14}}}

	if p, ok := item.PriceFor("large"); !ok || p != 14 {
		t.Errorf("PriceFor(large) = %v, %v", p, ok)
	}
	if _, ok := item.PriceFor("family"); ok {
		t.Error("PriceFor(family) should not be found")
	}
}

func TestUser_PublicStripsHash(t *testing.T) {
	u := &User{Email: "a@x.com", PasswordHash: "$2a$..."}
	pub := u.Public()
	if pub.Email != "a@x.com" {
		t.Errorf("Email = %q", pub.Email)
	}
	if pub.Orders == nil {
		t.Error("Orders should be an empty slice, not nil")
	}
}
