package model

import (
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

type ReceiptStatus string

const (
	ReceiptPending ReceiptStatus = "pending"
	ReceiptSent    ReceiptStatus = "sent"
	ReceiptFailed  ReceiptStatus = "failed"
)

// Order is a checked-out cart moving through payment and receipt delivery.
//
// State only moves forward:
//
//	(pending,pending) -> (failed,pending)                      terminal
//	(pending,pending) -> (succeeded,pending) -> (succeeded,sent)   terminal
//	                                         -> (succeeded,failed) terminal
//
// The Mark* methods are the only way the workflow changes the status fields,
// and each refuses a transition that is not allowed from the current state.
type Order struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	CartID     string        `json:"cartId"`
	Total      float64       `json:"total"`
	Payment    PaymentStatus `json:"payment"`
	Receipt    ReceiptStatus `json:"receipt"`
	ChargeID   string        `json:"chargeId,omitempty"`
	DeliveryID string        `json:"deliveryId,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// NewOrder returns an order in the (pending,pending) state.
func NewOrder(id, email, cartID string, total float64, now time.Time) *Order {
	return &Order{
		ID:        id,
		Email:     email,
		CartID:    cartID,
		Total:     total,
		Payment:   PaymentPending,
		Receipt:   ReceiptPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkPaid records a successful charge.
func (o *Order) MarkPaid(chargeID string, now time.Time) error {
	if o.Payment != PaymentPending {
		return o.badTransition("payment", string(PaymentSucceeded))
	}
	o.Payment = PaymentSucceeded
	o.ChargeID = chargeID
	o.UpdatedAt = now
	return nil
}

func (o *Order) MarkPaymentFailed(now time.Time) error {
	if o.Payment != PaymentPending {
		return o.badTransition("payment", string(PaymentFailed))
	}
	o.Payment = PaymentFailed
	o.UpdatedAt = now
	return nil
}

// MarkReceiptSent records a delivered receipt. Only paid orders get receipts.
func (o *Order) MarkReceiptSent(deliveryID string, now time.Time) error {
	if o.Payment != PaymentSucceeded || o.Receipt != ReceiptPending {
		return o.badTransition("receipt", string(ReceiptSent))
	}
	o.Receipt = ReceiptSent
	o.DeliveryID = deliveryID
	o.UpdatedAt = now
	return nil
}

func (o *Order) MarkReceiptFailed(now time.Time) error {
	if o.Payment != PaymentSucceeded || o.Receipt != ReceiptPending {
		return o.badTransition("receipt", string(ReceiptFailed))
	}
	o.Receipt = ReceiptFailed
	o.UpdatedAt = now
	return nil
}

// Terminal reports whether the order has reached a final state.
func (o *Order) Terminal() bool {
	return o.Payment == PaymentFailed || o.Receipt == ReceiptSent || o.Receipt == ReceiptFailed
}

// Failed reports whether either step of the order failed.
func (o *Order) Failed() bool {
	return o.Payment == PaymentFailed || o.Receipt == ReceiptFailed
}

func (o *Order) badTransition(field, to string) error {
	return fmt.Errorf("order %s: cannot move %s to %s from (%s,%s)",
		o.ID, field, to, o.Payment, o.Receipt)
}
