package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/service"
)

// CartHandler serves /api/carts. Every route needs a token; the cart's owner
// is whoever the token belongs to.
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

func NewCartHandler(carts *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

type cartRequest struct {
	ID    string           `json:"id"`
	Items []model.CartItem `json:"items"`
}

// HandleCreate starts a new active cart for the caller.
//
// HTTP: POST /api/carts
// REQUEST BODY: {"items": [{"itemId", "name", "size", "price", "qty"}]}
func (h *CartHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in cartRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	cart, err := h.carts.Create(r.Context(), auth.TokenFromContext(r.Context()), in.Items)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// HTTP: GET /api/carts?id=
func (h *CartHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), auth.TokenFromContext(r.Context()), r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// HandleUpdate replaces the cart's line items.
//
// HTTP: PUT /api/carts
// REQUEST BODY: {"id": "...", "items": [...]}
func (h *CartHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in cartRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	cart, err := h.carts.Update(r.Context(), auth.TokenFromContext(r.Context()), in.ID, in.Items)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}
