package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cheesy-delights/internal/service"
)

// MenuHandler serves the read-only catalog. No token is needed.
type MenuHandler struct {
	menu   *service.MenuService
	logger *slog.Logger
}

func NewMenuHandler(menu *service.MenuService, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{menu: menu, logger: logger}
}

// HTTP: GET /api/menu
func (h *MenuHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HTTP: GET /api/items?id=
func (h *MenuHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.menu.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
