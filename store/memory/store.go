// Package memory provides an in-memory counter store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/pacer/store"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// DefaultSweepInterval is how often the janitor physically removes
// elapsed counters.
const DefaultSweepInterval = time.Minute

// entry is a single counter and the instant its window ends.
type entry struct {
	count     int64
	expiresAt time.Time
}

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for single-process schedulers,
// unit testing, and development.
//
// Counters whose window has elapsed are treated as absent immediately;
// a background janitor reclaims their memory on an interval.
type Store struct {
	mu       sync.RWMutex
	counters map[string]*entry

	now   func() time.Time
	sweep time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

// Option configures the Store.
type Option func(*Store)

// WithSweepInterval sets how often elapsed counters are physically removed.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweep = d
	}
}

// WithClock replaces the store's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a new empty Store and starts its janitor.
func New(opts ...Option) *Store {
	s := &Store{
		counters: make(map[string]*entry),
		now:      time.Now,
		sweep:    DefaultSweepInterval,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor()
	return s
}

// Count returns the counter value for key, or 0 when the key is absent
// or its window has elapsed.
func (m *Store) Count(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.counters[key]
	if !ok || !e.expiresAt.After(m.now()) {
		return 0, nil
	}
	return e.count, nil
}

// Increment adds one to the key's counter. An absent or elapsed key starts
// a fresh window with count 1 and the given ttl; a live key keeps the
// expiry from its window start.
func (m *Store) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.counters[key]
	if !ok || !e.expiresAt.After(now) {
		m.counters[key] = &entry{count: 1, expiresAt: now.Add(ttl)}
		return 1, nil
	}
	e.count++
	return e.count, nil
}

// TTL returns the time remaining in the key's window, or 0 when the key
// is absent or elapsed.
func (m *Store) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.counters[key]
	if !ok {
		return 0, nil
	}
	remaining := e.expiresAt.Sub(m.now())
	if remaining <= 0 {
		return 0, nil
	}
	return remaining, nil
}

// Reset deletes the key's counter.
func (m *Store) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.counters, key)
	return nil
}

// Close stops the janitor. Safe to call more than once.
func (m *Store) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}

// janitor periodically removes counters whose window has elapsed.
func (m *Store) janitor() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.removeElapsed()
		}
	}
}

func (m *Store) removeElapsed() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.counters {
		if !e.expiresAt.After(now) {
			delete(m.counters, key)
		}
	}
}
