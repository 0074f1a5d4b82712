// Package quota models rate limits discovered dynamically from a remote
// API, typically by reading its rate-limit response headers.
//
// A [Source] reports the current [Status]. The scheduler polls the source
// during admission and admits work only while Remaining is positive,
// waiting for the reset instant otherwise. [Cached] wraps an expensive
// source (for example one that probes the remote API) so it is refreshed
// at a bounded rate instead of once per admission cycle.
package quota

import (
	"context"
	"time"
)

// Status is a point-in-time snapshot of the remote quota.
type Status struct {
	// Remaining is how many requests may still be made in the current
	// window.
	Remaining int

	// Reset is the Unix timestamp (seconds) at which the window resets
	// and Remaining returns to Limit.
	Reset int64

	// Limit is the total capacity of the window.
	Limit int
}

// ResetTime returns Reset as a time.Time.
func (s Status) ResetTime() time.Time {
	return time.Unix(s.Reset, 0)
}

// Source reports the remote API's current rate-limit status.
type Source interface {
	RateLimitStatus(ctx context.Context) (Status, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context) (Status, error)

// RateLimitStatus implements Source.
func (f SourceFunc) RateLimitStatus(ctx context.Context) (Status, error) {
	return f(ctx)
}
