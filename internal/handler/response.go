// Package handler contains the HTTP handlers of the pizza-ordering API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the request: query parameters for GET/DELETE, JSON body for POST/PUT,
//     and the token id that auth.WithToken put in the context.
//  2. Call one service method.
//  3. Write the JSON response, or map the error to a status code.
//
// Handlers contain no business logic and never touch the store.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/service"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
//
//	{"error": "validation_error", "message": "card number must be 16 digits", "field": "cardNumber"}
//
// Order carries the order record when a checkout failed after the order was
// created. Cascade carries the deletion report when a user was deleted but
// some of their records were not.
type ErrorResponse struct {
	Error   string                 `json:"error"`   // Machine-readable kind, e.g. "not_found"
	Message string                 `json:"message"` // Human-readable description
	Field   string                 `json:"field,omitempty"`
	Order   *model.Order           `json:"order,omitempty"`
	Cascade *service.CascadeReport `json:"cascade,omitempty"`
}

// writeJSON sends data as JSON with the given status code. Headers must be
// set before WriteHeader; anything set after is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKinds maps each sentinel to its status code and machine-readable name.
// The first match wins, so more specific kinds come first.
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrExpired, http.StatusBadRequest, "token_expired"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrPaymentFailed, http.StatusPaymentRequired, "payment_failed"},
	{apperror.ErrNotificationFailed, http.StatusBadGateway, "notification_failed"},
	{apperror.ErrStorage, http.StatusInternalServerError, "storage_error"},
}

// errorResponse maps a domain error to its HTTP status and body. The service
// layer never knows about status codes; this is the only place they are chosen.
//
// Unknown errors become a generic 500. Their text can contain file paths or
// SQL, so it is logged, never sent.
func errorResponse(err error) (int, ErrorResponse) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, k := range errorKinds {
			if errors.Is(err, k.err) {
				return k.status, ErrorResponse{Error: k.kind, Message: appErr.Message, Field: appErr.Field}
			}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	}
}

// writeError sends err as an ErrorResponse. Server-side failures are logged
// with their full cause.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	writeErrorResponse(w, logger, err, nil)
}

func writeErrorResponse(w http.ResponseWriter, logger *slog.Logger, err error, decorate func(*ErrorResponse)) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
	if decorate != nil {
		decorate(&body)
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON request body into v. A malformed or oversized body
// is a validation error on the whole body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "request body is too large")
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "no route for " + r.URL.Path,
	})
}

// MethodNotAllowed is the router's fallback for a known path with an
// unsupported verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	status, body := errorResponse(apperror.MethodNotAllowed(r.Method, r.URL.Path))
	writeJSON(w, status, body)
}
