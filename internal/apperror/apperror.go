// Package apperror defines the application's error taxonomy.
//
// Every error that crosses a layer boundary is an *AppError wrapping one of the
// sentinel errors below. Callers test the kind with errors.Is and pull out the
// human-readable message with errors.As; the HTTP layer maps kinds to status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrExpired            = errors.New("expired")
	ErrMethodNotAllowed   = errors.New("method not allowed")
	ErrStorage            = errors.New("storage error")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrNotificationFailed = errors.New("notification failed")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error, never shown to clients
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is can match either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with id %s", resource, id),
	}
}

// InvalidState is a conflict with the current state of a record rather than
// a duplicate key, e.g. ordering a cart that was already checked out.
func InvalidState(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is used for missing tokens and bad login credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func Expired(resource, id string) *AppError {
	return &AppError{
		Err:     ErrExpired,
		Message: fmt.Sprintf("%s %s has already expired", resource, id),
	}
}

func MethodNotAllowed(method, path string) *AppError {
	return &AppError{
		Err:     ErrMethodNotAllowed,
		Message: fmt.Sprintf("method %s is not allowed on %s", method, path),
	}
}

// Storage reports a failed persistence step. step names what was being
// persisted, e.g. "record payment"; it ends up in the client-visible message.
func Storage(step string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("could not %s", step),
		Cause:   cause,
	}
}

func PaymentFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrPaymentFailed,
		Message: "payment service could not charge the card",
		Cause:   cause,
	}
}

func NotificationFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrNotificationFailed,
		Message: "email service failed to send the order receipt",
		Cause:   cause,
	}
}
