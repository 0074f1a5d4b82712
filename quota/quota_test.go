package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

func TestStatusResetTime(t *testing.T) {
	t.Parallel()

	reset := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := Status{Remaining: 3, Reset: reset.Unix(), Limit: 10}

	if got := st.ResetTime(); !got.Equal(reset) {
		t.Errorf("ResetTime() = %v, want %v", got, reset)
	}
}

func TestSourceFunc(t *testing.T) {
	t.Parallel()

	src := SourceFunc(func(context.Context) (Status, error) {
		return Status{Remaining: 7}, nil
	})

	st, err := src.RateLimitStatus(context.Background())
	if err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}
	if st.Remaining != 7 {
		t.Errorf("Remaining = %d, want 7", st.Remaining)
	}
}

// ---------------------------------------------------------------------------
// Cached
// ---------------------------------------------------------------------------

// countingSource records calls and serves a settable status or error.
type countingSource struct {
	calls int
	st    Status
	err   error
}

func (s *countingSource) RateLimitStatus(context.Context) (Status, error) {
	s.calls++
	if s.err != nil {
		return Status{}, s.err
	}
	return s.st, nil
}

func TestCachedServesWithinWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &countingSource{st: Status{Remaining: 5, Reset: now.Add(10 * time.Second).Unix(), Limit: 10}}
	c := NewCached(src,
		WithClock(func() time.Time { return now }),
		WithRefreshLimit(rate.Inf, 0),
	)
	ctx := context.Background()

	st, err := c.RateLimitStatus(ctx)
	if err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}
	if st.Remaining != 5 {
		t.Fatalf("Remaining = %d, want 5", st.Remaining)
	}
	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}

	// Still inside the cached window: no new probe.
	now = now.Add(time.Second)
	if _, err := c.RateLimitStatus(ctx); err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1 (served from cache)", src.calls)
	}
}

func TestCachedRefreshesAfterReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &countingSource{st: Status{Remaining: 5, Reset: now.Add(10 * time.Second).Unix(), Limit: 10}}
	c := NewCached(src,
		WithClock(func() time.Time { return now }),
		WithRefreshLimit(rate.Inf, 0),
	)
	ctx := context.Background()

	if _, err := c.RateLimitStatus(ctx); err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}

	// Window rolled over: next call must probe again.
	now = now.Add(11 * time.Second)
	src.st = Status{Remaining: 10, Reset: now.Add(10 * time.Second).Unix(), Limit: 10}

	st, err := c.RateLimitStatus(ctx)
	if err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2", src.calls)
	}
	if st.Remaining != 10 {
		t.Errorf("Remaining = %d, want 10 (refreshed)", st.Remaining)
	}
}

func TestCachedServesStaleWhenRefreshDenied(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &countingSource{st: Status{Remaining: 5, Reset: now.Add(time.Second).Unix(), Limit: 10}}
	// One probe ever: a single burst token that never refills.
	c := NewCached(src,
		WithClock(func() time.Time { return now }),
		WithRefreshLimit(0, 1),
	)
	ctx := context.Background()

	if _, err := c.RateLimitStatus(ctx); err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}

	now = now.Add(2 * time.Second)
	st, err := c.RateLimitStatus(ctx)
	if err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1 (refresh denied)", src.calls)
	}
	if st.Remaining != 5 {
		t.Errorf("Remaining = %d, want stale 5", st.Remaining)
	}
}

func TestCachedServesStaleOnRefreshFailure(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &countingSource{st: Status{Remaining: 5, Reset: now.Add(time.Second).Unix(), Limit: 10}}
	c := NewCached(src,
		WithClock(func() time.Time { return now }),
		WithRefreshLimit(rate.Inf, 0),
	)
	ctx := context.Background()

	if _, err := c.RateLimitStatus(ctx); err != nil {
		t.Fatalf("RateLimitStatus() error = %v", err)
	}

	// Upstream starts failing after the window rolls over.
	src.err = errors.New("upstream down")
	now = now.Add(2 * time.Second)

	st, err := c.RateLimitStatus(ctx)
	if err != nil {
		t.Fatalf("RateLimitStatus() error = %v, want stale status", err)
	}
	if st.Remaining != 5 {
		t.Errorf("Remaining = %d, want stale 5", st.Remaining)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2", src.calls)
	}
}

func TestCachedSurfacesErrorWhenNothingCached(t *testing.T) {
	t.Parallel()

	upstream := errors.New("upstream down")
	src := &countingSource{err: upstream}
	c := NewCached(src, WithRefreshLimit(0, 1))

	_, err := c.RateLimitStatus(context.Background())
	if !errors.Is(err, upstream) {
		t.Fatalf("RateLimitStatus() error = %v, want wrapped %v", err, upstream)
	}

	// The probe budget is spent; the denied retry still reports the last
	// upstream error rather than inventing a status.
	_, err = c.RateLimitStatus(context.Background())
	if !errors.Is(err, upstream) {
		t.Errorf("RateLimitStatus() error = %v, want %v", err, upstream)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestCachedStatusUnavailable(t *testing.T) {
	t.Parallel()

	src := &countingSource{st: Status{Remaining: 5}}
	// No probe budget at all.
	c := NewCached(src, WithRefreshLimit(0, 0))

	_, err := c.RateLimitStatus(context.Background())
	if !errors.Is(err, ErrStatusUnavailable) {
		t.Fatalf("RateLimitStatus() error = %v, want ErrStatusUnavailable", err)
	}
	if src.calls != 0 {
		t.Errorf("source calls = %d, want 0", src.calls)
	}
}

func TestCachedConcurrentAccess(t *testing.T) {
	t.Parallel()

	src := SourceFunc(func(context.Context) (Status, error) {
		return Status{Remaining: 5, Reset: time.Now().Add(time.Minute).Unix(), Limit: 10}, nil
	})
	c := NewCached(src, WithRefreshLimit(rate.Inf, 0))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.RateLimitStatus(context.Background()); err != nil {
				t.Errorf("RateLimitStatus() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
