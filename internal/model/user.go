// Package model defines the records persisted in the store and returned by the API.
package model

import "time"

// User is a registered customer, keyed by email.
//
// CartID points at the active cart, if any. Orders lists every order the user
// has placed, oldest first. PasswordHash is a bcrypt hash and must never leave
// the service layer; use Public for API output.
type User struct {
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postalCode"`
	PasswordHash string    `json:"passwordHash"`
	CartID       string    `json:"cartId,omitempty"`
	Orders       []string  `json:"orders"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the user profile with the password hash stripped.
type PublicUser struct {
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	CartID     string    `json:"cartId,omitempty"`
	Orders     []string  `json:"orders"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Public() PublicUser {
	orders := u.Orders
	if orders == nil {
		orders = []string{}
	}
	return PublicUser{
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Address:    u.Address,
		City:       u.City,
		State:      u.State,
		PostalCode: u.PostalCode,
		CartID:     u.CartID,
		Orders:     orders,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
