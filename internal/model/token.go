package model

import "time"

// Token is a bearer credential bound to one user email until Expires.
type Token struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

// Valid reports whether the token is still unexpired at now.
func (t *Token) Valid(now time.Time) bool {
	return now.Before(t.Expires)
}

// BoundTo reports whether the token authorizes actions for email at now.
func (t *Token) BoundTo(email string, now time.Time) bool {
	return t.Email == email && t.Valid(now)
}
