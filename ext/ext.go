// Package ext defines the extension system for pacer.
// Extensions are notified of request lifecycle events (queued, started,
// completed, failed, etc.) and can react to them — logging, metrics,
// tracing, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/pacer/request"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Request lifecycle hooks
// ──────────────────────────────────────────────────

// RequestQueued is called after a request is accepted into the queue.
type RequestQueued interface {
	OnRequestQueued(ctx context.Context, req *request.Request) error
}

// RequestStarted is called when a request begins executing.
type RequestStarted interface {
	OnRequestStarted(ctx context.Context, req *request.Request) error
}

// RequestCompleted is called after a request finishes successfully.
type RequestCompleted interface {
	OnRequestCompleted(ctx context.Context, req *request.Request, elapsed time.Duration) error
}

// RequestFailed is called when a request fails terminally (no more retries).
type RequestFailed interface {
	OnRequestFailed(ctx context.Context, req *request.Request, err error) error
}

// RequestRetrying is called when a request fails but is scheduled for retry.
type RequestRetrying interface {
	OnRequestRetrying(ctx context.Context, req *request.Request, attempt int, delay time.Duration) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// RateLimited is called when the scheduler defers dispatch because the
// rate-limit window is exhausted. wait is the time until the next recheck.
type RateLimited interface {
	OnRateLimited(ctx context.Context, schedulerID string, wait time.Duration) error
}

// Shutdown is called when the scheduler is destroyed.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
