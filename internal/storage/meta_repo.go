package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_meta_store.go -package=mocks notevec/internal/storage MetaStore

import (
	"context"
	"database/sql"
	"fmt"
)

// MetaStore holds informational sync metadata. Values are never used for
// correctness decisions.
type MetaStore interface {
	// Get returns the value for key, or "" if unset.
	Get(ctx context.Context, key string) (string, error)
	// Set upserts a key/value pair.
	Set(ctx context.Context, key, value string) error
}

// MetaRepo implements MetaStore over the sync_meta table.
type MetaRepo struct {
	db *sql.DB
}

// NewMetaRepo creates a new MetaRepo.
func NewMetaRepo(db *sql.DB) *MetaRepo {
	return &MetaRepo{db: db}
}

// Get returns the value for key, or "" if unset.
func (r *MetaRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM sync_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query sync metadata: %w", err)
	}
	return value, nil
}

// Set upserts a key/value pair.
func (r *MetaRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set sync metadata: %w", err)
	}
	return nil
}
