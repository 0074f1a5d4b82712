// Package redis implements store.Store backed by Redis, for scheduler
// instances sharing one rate limit across processes.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/pacer/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// DefaultKeyPrefix namespaces counter keys to avoid collisions with other
// data in the same Redis instance.
const DefaultKeyPrefix = "pacer:counter:"

// incrScript increments a counter and attaches the window TTL when the
// increment created the key. Running both steps server-side closes the gap
// a separate INCR and PEXPIRE would leave: a crash between them strands a
// counter with no expiry.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Option configures the Store.
type Option func(*Store)

// WithKeyPrefix overrides the default key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// Store implements store.Store backed by Redis. Counters are plain string
// keys with a millisecond TTL; Redis expires them itself, so an elapsed
// window is simply an absent key.
type Store struct {
	client redis.Cmdable
	prefix string
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() redis.Cmdable { return s.client }

func (s *Store) counterKey(key string) string { return s.prefix + key }

// Count returns the current counter value, or 0 when the key is absent.
func (s *Store) Count(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, s.counterKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("pacer/redis: count: %w", err)
	}
	return n, nil
}

// Increment adds one to the key's counter, attaching ttl when this
// increment starts a new window.
func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := incrScript.Run(ctx, s.client, []string{s.counterKey(key)}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("pacer/redis: increment: %w", err)
	}
	return n, nil
}

// TTL returns the time remaining in the key's window.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.PTTL(ctx, s.counterKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("pacer/redis: ttl: %w", err)
	}
	// PTTL reports -2 for a missing key and -1 for a key without expiry.
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// Reset deletes the key's counter.
func (s *Store) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.counterKey(key)).Err(); err != nil {
		return fmt.Errorf("pacer/redis: reset: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }
