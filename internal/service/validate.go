// Package service contains the business logic of the pizza-ordering API.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)      -> parses requests, writes responses
//	Service (business)  -> validates, authorizes, orchestrates
//	Store   (data)      -> reads/writes JSON records
//
// Services take primitives and plain structs, never *http.Request, so the admin
// CLI and the audit worker can reuse them. They return *apperror.AppError values;
// the handler layer maps those to status codes.
//
// VALIDATION IS ALL-OR-NOTHING:
// Every input is checked before the first store access. A request with one bad
// field fails as a whole with ErrValidation and touches nothing.
package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// Validation limits.
const (
	MaxFieldLength  = 200
	MaxCartItems    = 50
	MaxItemQuantity = 100
	MaxItemPrice    = 10000
)

// emailPattern only admits characters that are also safe as a store key; the
// local part may not start with a dot.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9_+-][A-Za-z0-9._+-]*@([A-Za-z0-9-]+\.)+[A-Za-z]{2,}$`)

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > repository.MaxKeyLength || !emailPattern.MatchString(email) {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}

func requireString(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if len(value) > MaxFieldLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, MaxFieldLength))
	}
	return value, nil
}

func validatePassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > auth.MaxPasswordLength {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or less", auth.MaxPasswordLength))
	}
	return password, nil
}

// validateID checks a generated id (token, cart, order) by its fixed length.
func validateID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if len(id) != model.IDLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be a %d-character id", field, model.IDLength))
	}
	return id, nil
}

func validateItems(items []model.CartItem, allowEmpty bool) ([]model.CartItem, error) {
	if len(items) == 0 && !allowEmpty {
		return nil, apperror.ValidationFailed("items", "at least one item is required")
	}
	if len(items) > MaxCartItems {
		return nil, apperror.ValidationFailed("items",
			fmt.Sprintf("a cart can hold at most %d items", MaxCartItems))
	}

	out := make([]model.CartItem, len(items))
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
			return nil, apperror.ValidationFailed(field+".qty",
				fmt.Sprintf("quantity must be between 1 and %d", MaxItemQuantity))
		}
		if item.Price <= 0 || item.Price > MaxItemPrice {
			return nil, apperror.ValidationFailed(field+".price", "price must be a positive amount")
		}
		item.ItemID = strings.TrimSpace(item.ItemID)
		item.Name = strings.TrimSpace(item.Name)
		item.Size = strings.TrimSpace(item.Size)
		if len(item.Name) > MaxFieldLength || len(item.Size) > MaxFieldLength {
			return nil, apperror.ValidationFailed(field, "item name and size must be short strings")
		}
		out[i] = item
	}
	return out, nil
}
