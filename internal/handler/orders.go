package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/service"
)

// OrderHandler serves /api/orders.
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// HandleCreate checks out a cart.
//
// HTTP: POST /api/orders
// REQUEST BODY: {"cartId", "cardName", "cardNumber", "cardCvc", "cardExpireMonth", "cardExpireYear"}
//
// If the workflow fails after the order was created, the error body carries
// the order in the state it reached, so the client can tell a declined card
// (payment "failed") from a charged card whose receipt was not sent.
func (h *OrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CheckoutInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	order, err := h.orders.Create(r.Context(), auth.TokenFromContext(r.Context()), in)
	if err != nil {
		if order != nil {
			writeErrorResponse(w, h.logger, err, func(body *ErrorResponse) { body.Order = order })
			return
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// HandleGet returns one order by id, or every order of a user by email.
//
// HTTP: GET /api/orders?id=
// HTTP: GET /api/orders?email=
func (h *OrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenID := auth.TokenFromContext(r.Context())

	if q.Has("email") && !q.Has("id") {
		orders, err := h.orders.ListForUser(r.Context(), tokenID, q.Get("email"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
		return
	}

	order, err := h.orders.Get(r.Context(), tokenID, q.Get("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
