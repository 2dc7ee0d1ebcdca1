package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
)

//go:embed menu.json
var defaultMenu []byte

// DefaultMenu returns the built-in catalog.
func DefaultMenu() ([]model.MenuItem, error) {
	var items []model.MenuItem
	if err := json.Unmarshal(defaultMenu, &items); err != nil {
		return nil, fmt.Errorf("decoding default menu: %w", err)
	}
	return items, nil
}

// MenuService serves the read-only catalog.
type MenuService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewMenuService(store repository.Store, logger *slog.Logger) *MenuService {
	return &MenuService{store: store, logger: logger}
}

// Seed writes the default catalog into the store. Items already present are
// left untouched, so edits made directly in the store survive restarts.
// It returns the number of items written.
func (s *MenuService) Seed(ctx context.Context) (int, error) {
	items, err := DefaultMenu()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, item := range items {
		err := s.store.Create(ctx, repository.Menu, item.ID, item)
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperror.ErrConflict):
		default:
			return created, fmt.Errorf("seeding menu item %s: %w", item.ID, err)
		}
	}

	if created > 0 {
		s.logger.Info("menu seeded", slog.Int("items", created))
	}
	return created, nil
}

// List returns every catalog item ordered by id.
func (s *MenuService) List(ctx context.Context) ([]model.MenuItem, error) {
	ids, err := s.store.List(ctx, repository.Menu)
	if err != nil {
		return nil, apperror.Storage("list the menu", err)
	}

	items := make([]model.MenuItem, 0, len(ids))
	for _, id := range ids {
		var item model.MenuItem
		if err := s.store.Read(ctx, repository.Menu, id, &item); err != nil {
			// Deleted between List and Read.
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, apperror.Storage("read the menu", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Get returns one catalog item.
func (s *MenuService) Get(ctx context.Context, id string) (*model.MenuItem, error) {
	id = strings.TrimSpace(id)
	if len(id) != model.MenuItemIDLength {
		return nil, apperror.ValidationFailed("id",
			fmt.Sprintf("id must be a %d-character item id", model.MenuItemIDLength))
	}

	var item model.MenuItem
	if err := s.store.Read(ctx, repository.Menu, id, &item); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("menu item", id)
		}
		return nil, apperror.Storage("read the menu item", err)
	}
	return &item, nil
}
