package postgres

import (
	"context"
	"database/sql"
	"errors"

	"sufikitchen/pkg/cart"
)

// Schema creates the table used by Storage.
const Schema = `CREATE TABLE IF NOT EXISTS cart_snapshots (
	key        TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Storage persists cart snapshots in PostgreSQL.
type Storage struct {
	db *sql.DB
}

// New creates a PostgreSQL snapshot storage. The caller must ensure the
// database has the cart_snapshots table (see Schema).
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Save upserts the snapshot for key.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_snapshots (key, data, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		key, data)
	return err
}

// Load retrieves the snapshot for key.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM cart_snapshots WHERE key=$1", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrNoSnapshot
	}
	return data, err
}

// Delete removes the snapshot for key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_snapshots WHERE key=$1", key)
	return err
}
