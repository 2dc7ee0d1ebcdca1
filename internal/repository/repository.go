// Package repository defines the record store every service persists through.
//
// A Store holds JSON-encoded records grouped into collections. Each record is
// addressed by (collection, key) and every operation is atomic for that single
// record. There are no cross-record transactions: callers sequence multi-record
// updates themselves, and concurrent writers to one key race (last writer wins).
package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/sakif/cheesy-delights/internal/apperror"
)

// Collection names.
const (
	Users  = "users"
	Tokens = "tokens"
	Carts  = "carts"
	Orders = "orders"
	Menu   = "menu"
)

// Store is implemented by the file and sqlite backends.
//
//   - Create fails with apperror.ErrConflict if the key exists.
//   - Read, Update and Delete fail with apperror.ErrNotFound if it does not.
//   - List returns the keys of a collection in ascending order (empty, not nil,
//     for an empty collection).
type Store interface {
	Create(ctx context.Context, collection, key string, record any) error
	Read(ctx context.Context, collection, key string, out any) error
	Update(ctx context.Context, collection, key string, record any) error
	Delete(ctx context.Context, collection, key string) error
	List(ctx context.Context, collection string) ([]string, error)
	Close() error
}

// MaxKeyLength keeps every file the file backend writes within the 255-byte
// file name limit: updates stage through ".tmp-<key>.json<up to 10 digits>".
const MaxKeyLength = 235

// namePattern forbids a leading dot: such names are hidden or temp files on disk.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9@_+-][A-Za-z0-9@._+-]*$`)

// ValidateName rejects collection names and keys that are empty, too long, or
// could escape a directory on disk. Backends call it on every operation.
func ValidateName(kind, name string) error {
	if len(name) > MaxKeyLength || !namePattern.MatchString(name) {
		return apperror.ValidationFailed(kind, fmt.Sprintf("invalid %s %q", kind, name))
	}
	return nil
}

// ValidateRef checks both a collection name and a key.
func ValidateRef(collection, key string) error {
	if err := ValidateName("collection", collection); err != nil {
		return err
	}
	return ValidateName("key", key)
}
