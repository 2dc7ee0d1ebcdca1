package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/charge"
	"github.com/stripe/stripe-go/v81/token"
)

// Stripe charges cards through the Stripe API in two calls:
//
//	tokens.New   card number, expiry, cvc, name        -> tok_...
//	charges.New  amount (cents), currency, source=tok_  -> ch_...
//
// The charge carries an idempotency key derived from the order id, so a
// retried checkout step never charges the same order twice.
type Stripe struct {
	tokens   *token.Client
	charges  *charge.Client
	currency string
	logger   *slog.Logger
}

// compile-time check that *Stripe implements Charger
var _ Charger = (*Stripe)(nil)

// NewStripe creates a Stripe client. baseURL is normally https://api.stripe.com;
// tests point it at an httptest server.
func NewStripe(baseURL, secret, currency string, logger *slog.Logger) *Stripe {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:        stripe.String(strings.TrimRight(baseURL, "/")),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		// Retries are the checkout's business; it bounds every call with a timeout.
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &Stripe{
		tokens:   &token.Client{B: backend, Key: secret},
		charges:  &charge.Client{B: backend, Key: secret},
		currency: currency,
		logger:   logger,
	}
}

// Charge tokenizes the card and charges it. The returned id is Stripe's charge id.
func (s *Stripe) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if req.Amount < MinimumAmount {
		return "", fmt.Errorf("payment: amount %.2f is below the minimum charge", req.Amount)
	}

	tokenParams := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(req.CardNumber),
			ExpMonth: stripe.String(strconv.Itoa(req.ExpMonth)),
			ExpYear:  stripe.String(strconv.Itoa(req.ExpYear)),
			CVC:      stripe.String(req.CVC),
			Name:     stripe.String(req.CardName),
		},
	}
	tokenParams.Context = ctx

	tok, err := s.tokens.New(tokenParams)
	if err != nil {
		return "", fmt.Errorf("payment: creating card token: %w", stripeErr(err))
	}

	chargeParams := &stripe.ChargeParams{
		Amount:       stripe.Int64(Cents(req.Amount)),
		Currency:     stripe.String(s.currency),
		Source:       &stripe.PaymentSourceSourceParams{Token: stripe.String(tok.ID)},
		Description:  stripe.String("Charge for " + req.Email),
		ReceiptEmail: stripe.String(req.Email),
	}
	chargeParams.Context = ctx
	chargeParams.AddMetadata("order_id", req.OrderID)
	chargeParams.SetIdempotencyKey("charge-" + req.OrderID)

	ch, err := s.charges.New(chargeParams)
	if err != nil {
		return "", fmt.Errorf("payment: creating charge: %w", stripeErr(err))
	}
	if !ch.Paid {
		return "", fmt.Errorf("%w: charge %s has status %q", ErrDeclined, ch.ID, ch.Status)
	}

	s.logger.Debug("stripe charge created",
		slog.String("order_id", req.OrderID),
		slog.String("charge_id", ch.ID),
	)
	return ch.ID, nil
}

// stripeErr turns card errors into ErrDeclined and leaves everything else
// (including context errors) wrapped as is.
func stripeErr(err error) error {
	var apiErr *stripe.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", ErrDeclined, apiErr.Msg)
	}
	return fmt.Errorf("stripe returned HTTP %d: %s", apiErr.HTTPStatusCode, apiErr.Msg)
}
