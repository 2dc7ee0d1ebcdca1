// Package payment charges cards for checked-out orders.
//
// The checkout workflow only sees the Charger interface. Production uses the
// Stripe client; staging and tests use Sandbox, which never leaves the process.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/xid"
)

// MinimumAmount is the smallest charge the card processor accepts, in dollars.
const MinimumAmount = 0.50

// ChargeRequest carries the card and the amount for one order.
type ChargeRequest struct {
	OrderID    string
	Email      string
	CardName   string
	CardNumber string
	CVC        string
	ExpMonth   int
	ExpYear    int
	Amount     float64 // dollars
}

// Charger is the payment collaborator. It returns the processor's charge id.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (string, error)
}

// ErrDeclined is returned when the processor refuses the card.
var ErrDeclined = errors.New("payment: card declined")

// Cents converts a dollar amount to the integer minor units processors expect.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// DeclineCardNumber is the card number Sandbox always declines, matching the
// processor's own test card for a generic decline.
const DeclineCardNumber = "4000000000000002"

// Sandbox approves every card except DeclineCardNumber and returns a
// synthetic charge id.
type Sandbox struct{}

// compile-time check that Sandbox implements Charger
var _ Charger = Sandbox{}

func (Sandbox) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Amount < MinimumAmount {
		return "", fmt.Errorf("payment: amount %.2f is below the minimum charge", req.Amount)
	}
	if req.CardNumber == DeclineCardNumber {
		return "", ErrDeclined
	}
	return "ch_" + xid.New().String(), nil
}
