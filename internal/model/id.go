package model

import "github.com/rs/xid"

// IDLength is the length of every generated id (tokens, carts, orders).
const IDLength = 20

// NewID returns a random 20-character opaque identifier.
//
// xid ids are 12 bytes (time, machine, pid, counter) encoded as base32hex,
// so they sort by creation time and never collide within one process.
func NewID() string {
	return xid.New().String()
}

// MenuItemIDLength is the length of catalog item ids, e.g. "p001".
const MenuItemIDLength = 4
