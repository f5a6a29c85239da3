package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acmeware/shopsync/identity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS shopsync_state (
    scope      TEXT NOT NULL,
    entity     TEXT NOT NULL,
    payload    BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (scope, entity)
);`

// PostgresStore backs the cache with PostgreSQL for deployments where the
// storefront renders server-side and sessions share a database instead of a
// device-local file.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on top of an existing connection pool and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create postgres cache schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewDbPool creates a pgx connection pool and fails early if the database is
// unreachable.
func NewDbPool(ctx context.Context, url string, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	poolCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(poolCtx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if err := pool.Ping(poolCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func (s *PostgresStore) Get(ctx context.Context, scope identity.Scope, entity Entity) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM shopsync_state WHERE scope = $1 AND entity = $2`,
		string(scope), string(entity),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get failed: %w", err)
	}
	return payload, nil
}

func (s *PostgresStore) Put(ctx context.Context, scope identity.Scope, entity Entity, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shopsync_state (scope, entity, payload, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (scope, entity) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(scope), string(entity), payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres put failed: %w", err)
	}
	return nil
}

// Close is a no-op: the pool is owned by the caller that built it.
func (s *PostgresStore) Close() error {
	return nil
}
