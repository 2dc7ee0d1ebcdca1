package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// Create inserts a new record. ON CONFLICT DO NOTHING plus a RowsAffected check
// turns "key already taken" into apperror.ErrConflict without parsing driver errors.
func (db *DB) Create(ctx context.Context, collection, key string, record any) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s/%s: %w", collection, key, err)
	}

	now := time.Now().UTC()
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO records (collection, key, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (collection, key) DO NOTHING`,
		collection, key, data, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting %s/%s: %w", collection, key, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.Conflict(collection, key)
	}
	return nil
}

// Read decodes the record into out, which must be a pointer.
func (db *DB) Read(ctx context.Context, collection, key string, out any) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}

	var data []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT data FROM records WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound(collection, key)
		}
		return fmt.Errorf("sqlite: reading %s/%s: %w", collection, key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("sqlite: decoding %s/%s: %w", collection, key, err)
	}
	return nil
}

// Update replaces an existing record.
func (db *DB) Update(ctx context.Context, collection, key string, record any) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s/%s: %w", collection, key, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE records SET data = ?, updated_at = ?
		 WHERE collection = ? AND key = ?`,
		data, time.Now().UTC(), collection, key,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s/%s: %w", collection, key, err)
	}
	return expectOneRow(result, collection, key)
}

func (db *DB) Delete(ctx context.Context, collection, key string) error {
	if err := repository.ValidateRef(collection, key); err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND key = ?`,
		collection, key,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s/%s: %w", collection, key, err)
	}
	return expectOneRow(result, collection, key)
}

// List returns the keys of a collection in ascending order.
func (db *DB) List(ctx context.Context, collection string) ([]string, error) {
	if err := repository.ValidateName("collection", collection); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT key FROM records WHERE collection = ? ORDER BY key`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", collection, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s key: %w", collection, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", collection, err)
	}

	return keys, nil
}

func expectOneRow(result sql.Result, collection, key string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(collection, key)
	}
	return nil
}
