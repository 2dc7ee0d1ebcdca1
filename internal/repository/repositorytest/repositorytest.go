// Package repositorytest is a conformance suite every repository.Store backend must pass.
//
// Backend packages call Run from their own tests:
//
//	func TestStore(t *testing.T) {
//	    repositorytest.Run(t, func(t *testing.T) repository.Store { return newTestStore(t) })
//	}
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/repository"
)

type record struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

// Run executes the suite. newStore must return an empty store; the suite does
// not close it, so register cleanup in newStore.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	ctx := context.Background()

	t.Run("create then read", func(t *testing.T) {
		s := newStore(t)
		in := record{Name: "margherita", Count: 2, Tags: []string{"veg"}}
		require.NoError(t, s.Create(ctx, repository.Carts, "cart1", in))

		var out record
		require.NoError(t, s.Read(ctx, repository.Carts, "cart1", &out))
		assert.Equal(t, in, out)
	})

	t.Run("create never overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, repository.Users, "a@x.com", record{Name: "first"}))

		err := s.Create(ctx, repository.Users, "a@x.com", record{Name: "second"})
		assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)

		var out record
		require.NoError(t, s.Read(ctx, repository.Users, "a@x.com", &out))
		assert.Equal(t, "first", out.Name)
	})

	t.Run("same key in different collections", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, repository.Carts, "k", record{Name: "cart"}))
		require.NoError(t, s.Create(ctx, repository.Orders, "k", record{Name: "order"}))

		var out record
		require.NoError(t, s.Read(ctx, repository.Orders, "k", &out))
		assert.Equal(t, "order", out.Name)
	})

	t.Run("read missing", func(t *testing.T) {
		s := newStore(t)
		var out record
		err := s.Read(ctx, repository.Orders, "nope", &out)
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	})

	t.Run("update replaces record", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, repository.Carts, "c", record{Name: "old", Tags: []string{"a", "b"}}))
		require.NoError(t, s.Update(ctx, repository.Carts, "c", record{Name: "new"}))

		var out record
		require.NoError(t, s.Read(ctx, repository.Carts, "c", &out))
		assert.Equal(t, record{Name: "new"}, out)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, repository.Carts, "ghost", record{})
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

		// A failed update must not create the record.
		keys, err := s.List(ctx, repository.Carts)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, repository.Tokens, "t1", record{}))
		require.NoError(t, s.Delete(ctx, repository.Tokens, "t1"))

		var out record
		assert.True(t, errors.Is(s.Read(ctx, repository.Tokens, "t1", &out), apperror.ErrNotFound))

		err := s.Delete(ctx, repository.Tokens, "t1")
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "second delete got %v", err)
	})

	t.Run("list", func(t *testing.T) {
		s := newStore(t)

		keys, err := s.List(ctx, repository.Orders)
		require.NoError(t, err)
		assert.NotNil(t, keys)
		assert.Empty(t, keys)

		for _, k := range []string{"c", "a", "b"} {
			require.NoError(t, s.Create(ctx, repository.Orders, k, record{Name: k}))
		}
		require.NoError(t, s.Create(ctx, repository.Carts, "other", record{}))

		keys, err = s.List(ctx, repository.Orders)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, keys)
	})

	t.Run("rejects unsafe keys", func(t *testing.T) {
		s := newStore(t)
		tooLong := strings.Repeat("a", repository.MaxKeyLength+1)
		for _, key := range []string{"", ".", "..", "../users/a", "a/b", "with space", ".tmp-a@x.com", tooLong} {
			err := s.Create(ctx, repository.Users, key, record{})
			assert.True(t, errors.Is(err, apperror.ErrValidation), "key %q: got %v", key, err)
		}
	})

	t.Run("longest key round-trips", func(t *testing.T) {
		s := newStore(t)
		key := strings.Repeat("a", repository.MaxKeyLength-len("@x.com")) + "@x.com"
		require.Len(t, key, repository.MaxKeyLength)

		require.NoError(t, s.Create(ctx, repository.Users, key, record{Name: "first"}))
		require.NoError(t, s.Update(ctx, repository.Users, key, record{Name: "second"}))

		var out record
		require.NoError(t, s.Read(ctx, repository.Users, key, &out))
		assert.Equal(t, "second", out.Name)

		keys, err := s.List(ctx, repository.Users)
		require.NoError(t, err)
		assert.Equal(t, []string{key}, keys)

		require.NoError(t, s.Delete(ctx, repository.Users, key))
	})

	t.Run("concurrent creates of one key", func(t *testing.T) {
		s := newStore(t)
		const n = 8

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.Create(ctx, repository.Carts, "race", record{Name: fmt.Sprint(i)})
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, apperror.ErrConflict):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins, "exactly one create should win")
	})
}
