// Package sqlite implements store.Store using SQLite via database/sql.
// Suited to single-host schedulers that need counters to survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver

	"github.com/xraph/pacer/store"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of store.Store. Expiry instants are
// stored as millisecond epochs so sub-second windows keep their precision.
type Store struct {
	db     *sql.DB
	ownsDB bool
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New opens (or creates) the SQLite database at path and returns a Store
// that owns the connection.
func New(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("pacer/sqlite: open: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection
	// serializes increments instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		ownsDB: true,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromDB wraps an existing *sql.DB. The caller owns the db lifecycle;
// the Store will not close it on Close().
func NewFromDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the counters table and its expiry index.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pacer_counters (
			key        TEXT PRIMARY KEY,
			count      INTEGER NOT NULL DEFAULT 0,
			expires_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_pacer_counters_expiry
			ON pacer_counters (expires_at);
	`)
	if err != nil {
		return fmt.Errorf("pacer/sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database when the Store owns it, and is a no-op
// otherwise.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// nowMillis returns the current time as a millisecond epoch.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
