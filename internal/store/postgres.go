package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wallst/internal/db"
)

var _ Blobs = (*PostgresBlobs)(nil)

type PostgresBlobs struct {
	db *pgxpool.Pool
}

func NewPostgresBlobs(pool *pgxpool.Pool) *PostgresBlobs {
	return &PostgresBlobs{db: pool}
}

// DialPostgres connects, creates the blob table if needed and returns the store.
func DialPostgres(ctx context.Context, databaseURL string) (*PostgresBlobs, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return NewPostgresBlobs(pool), nil
}

func (p *PostgresBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRow(ctx, `SELECT value FROM wallst.blobs WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *PostgresBlobs) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO wallst.blobs (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}

func (p *PostgresBlobs) Delete(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM wallst.blobs WHERE key = $1`, key)
	return err
}

func (p *PostgresBlobs) Close() error {
	p.db.Close()
	return nil
}
