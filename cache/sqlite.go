package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/acmeware/shopsync/identity"

	// SQLite driver for the default device-local store.
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS shopsync_state (
    scope      TEXT NOT NULL,
    entity     TEXT NOT NULL,
    payload    BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (scope, entity)
);`

// SQLiteStore is the default durable cache: a single key/value table in a
// device-local SQLite file, WAL mode for concurrent readers.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (and creates if needed) the cache database at the
// given DSN, e.g. "file:shopsync.db".
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	// A single writer keeps read-merge-write sequences from interleaving.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sqlite cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, scope identity.Scope, entity Entity) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM shopsync_state WHERE scope = ? AND entity = ?`,
		string(scope), string(entity),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get failed: %w", err)
	}
	return payload, nil
}

func (s *SQLiteStore) Put(ctx context.Context, scope identity.Scope, entity Entity, payload []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shopsync_state (scope, entity, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (scope, entity) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(scope), string(entity), payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite put failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
