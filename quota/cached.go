package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrStatusUnavailable is returned by Cached when no status has ever been
// fetched and the refresh budget does not allow probing the source yet.
var ErrStatusUnavailable = errors.New("pacer/quota: status unavailable")

// Default refresh budget: one upstream probe per second.
const (
	DefaultRefreshLimit = rate.Limit(1)
	DefaultRefreshBurst = 1
)

// Cached wraps a Source and serves a cached Status between window resets.
// Once the cached window's reset passes, the next call refreshes through a
// token-bucket limiter, so a hot-polled or failing upstream is probed at a
// bounded rate. When a refresh is denied by the limiter or the upstream
// call fails, the stale status is served instead; an upstream error
// surfaces only when nothing has been cached yet. Safe for concurrent use.
type Cached struct {
	src Source

	mu      sync.Mutex
	last    Status
	cached  bool
	lastErr error

	refresh *rate.Limiter
	now     func() time.Time
}

// Option configures a Cached source.
type Option func(*Cached)

// WithRefreshLimit sets the sustained rate and burst of upstream probes.
func WithRefreshLimit(limit rate.Limit, burst int) Option {
	return func(c *Cached) {
		c.refresh = rate.NewLimiter(limit, burst)
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cached) {
		c.now = now
	}
}

// NewCached wraps src with caching and refresh throttling.
func NewCached(src Source, opts ...Option) *Cached {
	c := &Cached{
		src:     src,
		refresh: rate.NewLimiter(DefaultRefreshLimit, DefaultRefreshBurst),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RateLimitStatus implements Source.
func (c *Cached) RateLimitStatus(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cached && now.Before(c.last.ResetTime()) {
		return c.last, nil
	}

	// The cached window is over, or nothing is cached yet. Probe the
	// upstream if the refresh budget allows; otherwise keep serving the
	// stale status.
	if !c.refresh.AllowN(now, 1) {
		if c.cached {
			return c.last, nil
		}
		if c.lastErr != nil {
			return Status{}, c.lastErr
		}
		return Status{}, ErrStatusUnavailable
	}

	st, err := c.src.RateLimitStatus(ctx)
	if err != nil {
		if c.cached {
			return c.last, nil
		}
		c.lastErr = fmt.Errorf("pacer/quota: refresh: %w", err)
		return Status{}, c.lastErr
	}

	c.last = st
	c.cached = true
	c.lastErr = nil
	return st, nil
}
