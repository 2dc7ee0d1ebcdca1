package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/service"
)

// UserHandler serves /api/users.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleCreate signs a user up. No token is needed.
//
// HTTP: POST /api/users
// REQUEST BODY: {"firstName", "lastName", "email", "address", "city", "state", "postalCode", "password"}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGet returns the caller's profile.
//
// HTTP: GET /api/users?email=
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), auth.TokenFromContext(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate changes any subset of the profile fields and the password.
//
// HTTP: PUT /api/users
// REQUEST BODY: {"email", ...fields to change}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), auth.TokenFromContext(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete deletes the user together with their orders and active cart.
// When some of those could not be deleted the response is a storage_error
// that carries the full report.
//
// HTTP: DELETE /api/users?email=
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	report, err := h.users.Delete(r.Context(), auth.TokenFromContext(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		if report != nil && errors.Is(err, apperror.ErrStorage) {
			writeErrorResponse(w, h.logger, err, func(body *ErrorResponse) { body.Cascade = report })
			return
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
