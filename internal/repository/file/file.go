// Package file implements repository.Store as one JSON file per record:
//
//	<root>/<collection>/<key>.json
//
// Writes never expose a half-written record. Create writes a temp file in the
// same directory and hard-links it into place (link fails if the target
// exists, so create never overwrites); Update replaces the file through
// atomicwriter, which does the same temp-file-and-rename dance.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moby/sys/atomicwriter"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/repository"
)

const (
	ext       = ".json"
	tmpPrefix = ".tmp-"
)

// compile-time check that *Store implements repository.Store
var _ repository.Store = (*Store)(nil)

// Store is a directory of collections.
type Store struct {
	root string
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("file: resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("file: creating %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the absolute data directory.
func (s *Store) Root() string { return s.root }

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error { return nil }

func (s *Store) Create(ctx context.Context, collection, key string, record any) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("file: encoding %s/%s: %w", collection, key, err)
	}
	tmp, err := s.writeTemp(collection, data)
	if err != nil {
		return fmt.Errorf("file: staging %s/%s: %w", collection, key, err)
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, s.path(collection, key)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperror.Conflict(collection, key)
		}
		return fmt.Errorf("file: creating %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, collection, key string, out any) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path(collection, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperror.NotFound(collection, key)
		}
		return fmt.Errorf("file: reading %s/%s: %w", collection, key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("file: decoding %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, key string, record any) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(collection, key)
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperror.NotFound(collection, key)
		}
		return fmt.Errorf("file: checking %s/%s: %w", collection, key, err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("file: encoding %s/%s: %w", collection, key, err)
	}
	if err := atomicwriter.WriteFile(target, data, 0o600); err != nil {
		return fmt.Errorf("file: replacing %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(collection, key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperror.NotFound(collection, key)
		}
		return fmt.Errorf("file: deleting %s/%s: %w", collection, key, err)
	}
	return nil
}

// List returns the keys in a collection, sorted. A collection that has never
// been written to is empty rather than missing.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := repository.ValidateName("collection", collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("file: listing %s: %w", collection, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ext))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) path(collection, key string) string {
	return filepath.Join(s.root, collection, key+ext)
}

// writeTemp writes data to a fresh temp file in the collection's directory and
// returns its path. The name does not depend on the key, so it fits whenever
// the key's own file name does.
func (s *Store) writeTemp(collection string, data []byte) (string, error) {
	dir := filepath.Join(s.root, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating collection directory: %w", err)
	}

	f, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return name, nil
}
