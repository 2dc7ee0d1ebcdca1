package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/metrics"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/notify"
	"github.com/sakif/cheesy-delights/internal/payment"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// CheckoutInput is the body of an order request.
type CheckoutInput struct {
	CartID     string `json:"cartId"`
	CardName   string `json:"cardName"`
	CardNumber string `json:"cardNumber"`
	CardCVC    string `json:"cardCvc"`
	ExpMonth   int    `json:"cardExpireMonth"`
	ExpYear    int    `json:"cardExpireYear"`
}

// CardNumberLength is the only card number length accepted.
const CardNumberLength = 16

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{16}$`)
	cvcPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// checkout is one run of the fulfillment workflow. Each method is one step;
// run calls them strictly in order and stops at the first error:
//
//	validate      request shape only, no store access          -> ErrValidation
//	authorize     cart exists, token owns it, cart still active -> ErrNotFound / ErrForbidden / ErrConflict
//	openOrder     order created as (pending,pending)            -> ErrStorage
//	attachToUser  order id appended, active cart cleared        -> ErrStorage
//	charge        payment collaborator, result persisted        -> ErrPaymentFailed / ErrStorage
//	sendReceipt   notification collaborator, result persisted   -> ErrNotificationFailed / ErrStorage
//
// Nothing is rolled back. A failure after openOrder leaves the order in the
// last state that was written, and a failed receipt never reverses the charge.
type checkout struct {
	svc     *OrderService
	tokenID string
	in      CheckoutInput

	cart  *model.Cart
	user  *model.User
	order *model.Order
}

func (c *checkout) run(ctx context.Context) (*model.Order, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if err := c.authorize(ctx); err != nil {
		return nil, err
	}

	// From here on the workflow runs to a terminal state even if the client
	// goes away.
	ctx = context.WithoutCancel(ctx)

	if err := c.openOrder(ctx); err != nil {
		return nil, err
	}
	if err := c.attachToUser(ctx); err != nil {
		return c.order, err
	}
	if err := c.charge(ctx); err != nil {
		return c.order, err
	}
	if err := c.sendReceipt(ctx); err != nil {
		return c.order, err
	}
	return c.order, nil
}

func (c *checkout) validate() error {
	var err error
	if c.in.CartID, err = validateID("cartId", c.in.CartID); err != nil {
		return err
	}
	if c.in.CardName, err = requireString("cardName", c.in.CardName); err != nil {
		return err
	}

	c.in.CardNumber = strings.TrimSpace(c.in.CardNumber)
	if !cardNumberPattern.MatchString(c.in.CardNumber) {
		return apperror.ValidationFailed("cardNumber",
			fmt.Sprintf("card number must be %d digits", CardNumberLength))
	}
	if !cvcPattern.MatchString(c.in.CardCVC) {
		return apperror.ValidationFailed("cardCvc", "card CVC must be 3 or 4 digits")
	}
	if c.in.ExpMonth < 1 || c.in.ExpMonth > 12 {
		return apperror.ValidationFailed("cardExpireMonth", "card expiry month must be between 1 and 12")
	}

	switch {
	case c.in.ExpYear >= 0 && c.in.ExpYear <= 99:
		c.in.ExpYear += 2000
	case c.in.ExpYear >= 2000 && c.in.ExpYear <= 2099:
	default:
		return apperror.ValidationFailed("cardExpireYear", "card expiry year must have 2 or 4 digits")
	}
	return nil
}

func (c *checkout) authorize(ctx context.Context) error {
	cart, err := readCart(ctx, c.svc.store, c.in.CartID)
	if err != nil {
		return err
	}
	if err := c.svc.auth.Authorize(ctx, c.tokenID, cart.Email); err != nil {
		return err
	}

	user, err := readUser(ctx, c.svc.store, cart.Email)
	if err != nil {
		return err
	}
	if user.CartID != cart.ID {
		return apperror.InvalidState("cart " + cart.ID + " has already been checked out")
	}
	if cart.Total < payment.MinimumAmount {
		return apperror.ValidationFailed("cartId",
			fmt.Sprintf("cart total must be at least $%.2f", payment.MinimumAmount))
	}

	c.cart = cart
	c.user = user
	return nil
}

func (c *checkout) openOrder(ctx context.Context) error {
	order := model.NewOrder(model.NewID(), c.cart.Email, c.cart.ID, c.cart.Total, c.svc.now())
	if err := c.svc.store.Create(ctx, repository.Orders, order.ID, order); err != nil {
		return apperror.Storage("create the new order", err)
	}
	c.order = order

	c.svc.logger.Info("order opened",
		slog.String("order_id", order.ID),
		slog.String("email", order.Email),
		slog.String("cart_id", order.CartID),
		slog.Float64("total", order.Total),
	)
	return nil
}

func (c *checkout) attachToUser(ctx context.Context) error {
	c.user.Orders = append(c.user.Orders, c.order.ID)
	c.user.CartID = ""
	c.user.UpdatedAt = c.svc.now()

	if err := c.svc.store.Update(ctx, repository.Users, c.user.Email, c.user); err != nil {
		return apperror.Storage("update the user's orders", err)
	}
	return nil
}

func (c *checkout) charge(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.svc.timeout)
	defer cancel()

	chargeID, chargeErr := c.svc.charger.Charge(callCtx, payment.ChargeRequest{
		OrderID:    c.order.ID,
		Email:      c.order.Email,
		CardName:   c.in.CardName,
		CardNumber: c.in.CardNumber,
		CVC:        c.in.CardCVC,
		ExpMonth:   c.in.ExpMonth,
		ExpYear:    c.in.ExpYear,
		Amount:     c.order.Total,
	})

	now := c.svc.now()
	if chargeErr != nil {
		c.svc.logger.Warn("order payment failed",
			slog.String("order_id", c.order.ID),
			slog.String("error", chargeErr.Error()),
		)
		if err := c.order.MarkPaymentFailed(now); err != nil {
			return err
		}
		if err := c.persist(ctx); err != nil {
			return apperror.Storage("record the failed payment", err)
		}
		return apperror.PaymentFailed(chargeErr)
	}

	if err := c.order.MarkPaid(chargeID, now); err != nil {
		return err
	}
	if err := c.persist(ctx); err != nil {
		c.svc.logger.Error("order charged but payment not recorded",
			slog.String("order_id", c.order.ID),
			slog.String("charge_id", chargeID),
			slog.String("error", err.Error()),
		)
		return apperror.Storage("record the payment", err)
	}
	return nil
}

func (c *checkout) sendReceipt(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.svc.timeout)
	defer cancel()

	deliveryID, sendErr := c.svc.notifier.SendReceipt(callCtx, c.receipt())

	now := c.svc.now()
	if sendErr != nil {
		c.svc.logger.Warn("order receipt failed",
			slog.String("order_id", c.order.ID),
			slog.String("error", sendErr.Error()),
		)
		if err := c.order.MarkReceiptFailed(now); err != nil {
			return err
		}
		if err := c.persist(ctx); err != nil {
			return apperror.Storage("record the failed receipt", err)
		}
		return apperror.NotificationFailed(sendErr)
	}

	if err := c.order.MarkReceiptSent(deliveryID, now); err != nil {
		return err
	}
	if err := c.persist(ctx); err != nil {
		return apperror.Storage("record the receipt details", err)
	}

	c.svc.logger.Info("order completed",
		slog.String("order_id", c.order.ID),
		slog.String("charge_id", c.order.ChargeID),
		slog.String("delivery_id", deliveryID),
	)
	return nil
}

func (c *checkout) persist(ctx context.Context) error {
	return c.svc.store.Update(ctx, repository.Orders, c.order.ID, c.order)
}

func (c *checkout) receipt() notify.Receipt {
	items := make([]notify.ReceiptItem, len(c.cart.Items))
	for i, item := range c.cart.Items {
		name := item.Name
		if name == "" {
			name = item.ItemID
		}
		if name == "" {
			name = "Item"
		}
		items[i] = notify.ReceiptItem{
			Name:     name,
			Size:     item.Size,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	return notify.Receipt{
		To:        c.order.Email,
		OrderID:   c.order.ID,
		FirstName: c.user.FirstName,
		LastName:  c.user.LastName,
		Items:     items,
		Amount:    c.order.Total,
		PaidAt:    c.order.UpdatedAt,
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSucceeded
	case errors.Is(err, apperror.ErrStorage):
		return metrics.OutcomeStorageError
	case errors.Is(err, apperror.ErrPaymentFailed):
		return metrics.OutcomePaymentFailed
	case errors.Is(err, apperror.ErrNotificationFailed):
		return metrics.OutcomeNotificationFailed
	default:
		return metrics.OutcomeRejected
	}
}
