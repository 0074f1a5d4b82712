// Package store defines the rate-limit counter interface the scheduler
// admits requests against. Backends: Memory, Redis, Postgres, Bun, Mongo,
// and SQLite.
package store

import (
	"context"
	"time"
)

// Store is a key-value counter with per-key TTL, the narrow contract a
// fixed-window rate limit needs. Keys may be shared across scheduler
// instances; every mutation must be atomic per key.
//
// Expiry is logical: once a key's TTL elapses, Count and TTL must treat it
// as absent immediately, whether or not the backend has physically removed
// it yet. Concurrent Increments on one key serialize to an exact count —
// no lost updates.
type Store interface {
	// Count returns the current value for key, or 0 when the key is
	// absent or its window has elapsed.
	Count(ctx context.Context, key string) (int64, error)

	// Increment adds one to the key's counter and returns the new value.
	// An absent (or elapsed) key is created with count 1 and the given
	// TTL; an existing key keeps the TTL from its creation.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// TTL returns the time remaining until the key's window elapses, or
	// 0 when the key is absent or already elapsed.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Reset deletes the key. Resetting an absent key is not an error.
	Reset(ctx context.Context, key string) error

	// Close releases resources owned by the store. Backends whose
	// connections are caller-owned treat it as a no-op.
	Close() error
}
