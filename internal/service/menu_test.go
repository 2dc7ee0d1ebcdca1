package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/repository"
)

func TestMenuSeed_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	n, err := e.menu.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 6 {
		t.Errorf("first Seed() wrote %d items, want 6", n)
	}

	n, err = e.menu.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second Seed() wrote %d items, want 0", n)
	}
}

func TestMenuSeed_StorageError(t *testing.T) {
	e := newTestEnv(t)
	e.store.failOn("create", repository.Menu, "p003", errDiskFull)

	n, err := e.menu.Seed(context.Background())
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("Seed() error = %v, want errDiskFull", err)
	}
	if n != 2 {
		t.Errorf("Seed() wrote %d items before failing, want 2", n)
	}
}

func TestMenuList(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	items, err := e.menu.List(ctx)
	if err != nil {
		t.Fatalf("List() on empty store error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("List() before seeding = %d items", len(items))
	}

	if _, err := e.menu.Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	items, err = e.menu.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("List() = %d items, want 6", len(items))
	}
	if items[0].ID != "p001" || items[5].ID != "p006" {
		t.Errorf("List() not ordered by id: first %s, last %s", items[0].ID, items[5].ID)
	}
}

func TestMenuGet(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if _, err := e.menu.Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	item, err := e.menu.Get(ctx, "p002")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Name != "Pepperoni" {
		t.Errorf("Name = %q, want Pepperoni", item.Name)
	}
	if price, ok := item.PriceFor("large"); !ok || price != 15.5 {
		t.Errorf("PriceFor(large) = %v, %v", price, ok)
	}

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"empty id", "", apperror.ErrValidation},
		{"long id", "p0001", apperror.ErrValidation},
		{"missing item", "p999", apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.menu.Get(ctx, tt.id); !errors.Is(err, tt.wantErr) {
				t.Errorf("Get(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
