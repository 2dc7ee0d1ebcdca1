package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cheesy-delights/internal/service"
)

// TokenHandler serves /api/tokens. Tokens are the login sessions; the id is
// sent back in the "token" header on every authenticated request.
type TokenHandler struct {
	tokens *service.TokenService
	logger *slog.Logger
}

func NewTokenHandler(tokens *service.TokenService, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{tokens: tokens, logger: logger}
}

// HandleCreate logs in.
//
// HTTP: POST /api/tokens
// REQUEST BODY: {"email": "...", "password": "..."}
func (h *TokenHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.tokens.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// HTTP: GET /api/tokens?id=
func (h *TokenHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// HandleExtend keeps a session alive for another hour.
//
// HTTP: PUT /api/tokens
// REQUEST BODY: {"id": "...", "extend": true}
func (h *TokenHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	var in service.ExtendInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.tokens.Extend(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// HandleDelete logs out.
//
// HTTP: DELETE /api/tokens?id=
func (h *TokenHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Delete(r.Context(), r.URL.Query().Get("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}
