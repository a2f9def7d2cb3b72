package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/photopoet/internal/db"
	"github.com/vbonduro/photopoet/internal/kv"
)

// Store keeps values in the kv table. Each Put is a single UPSERT statement,
// so replacement is atomic.
type Store struct {
	db    *sql.DB
	owned bool
}

// Open opens (and migrates) the database at dbPath. Close closes it.
func Open(dbPath string) (*Store, error) {
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: database, owned: true}, nil
}

// New wraps an already migrated database. Close leaves it open.
func New(database *sql.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM kv WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put value: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
