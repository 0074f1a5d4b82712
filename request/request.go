package request

import (
	"context"
	"time"

	"github.com/xraph/pacer/id"
)

// State represents the lifecycle state of a scheduled request.
type State string

const (
	// StateQueued means the request is waiting for admission.
	StateQueued State = "queued"
	// StateExecuting means the work function is currently running.
	StateExecuting State = "executing"
	// StateRetrying means the request failed and is waiting out its
	// backoff delay before re-entering the queue.
	StateRetrying State = "retrying"
	// StateCompleted means the request finished successfully.
	StateCompleted State = "completed"
	// StateFailed means the request resolved with an error and will
	// not run again.
	StateFailed State = "failed"
)

// Request represents one admitted unit of work from submission to terminal
// resolution. The scheduler owns it exclusively: it is mutated only under
// the scheduler's lock and never shared after it resolves.
type Request struct {
	ID id.RequestID `json:"id"`

	// Priority determines dispatch ordering. Higher values are served
	// first; the full signed range is valid.
	Priority int `json:"priority"`

	// EnqueuedAt is the original submission time. It is the FIFO
	// tie-break key among equal priorities and is preserved across
	// retry re-enqueues so retried requests keep their place in line.
	EnqueuedAt time.Time `json:"enqueued_at"`

	// QueuedAt is when the current wait began. It matches EnqueuedAt
	// until the first retry, then resets on every re-enqueue so queue
	// time measures the latest wait only.
	QueuedAt time.Time `json:"queued_at"`

	// Deadline is the absolute time after which the request must be
	// abandoned. Zero means no deadline.
	Deadline time.Time `json:"deadline,omitempty"`

	// Metadata is opaque caller-supplied data, passed through unexamined.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Retries counts how many times the work function has been re-run.
	Retries int `json:"retries"`

	State State `json:"state"`

	// ctx is the caller's cancellation signal, bound at construction.
	ctx context.Context
}

// New creates a queued request. ctx is the caller's cancellation signal;
// its deadline, if any, is folded into the request deadline (the earlier
// of the two wins).
func New(rid id.RequestID, ctx context.Context, opts ...Option) *Request {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	now := time.Now()
	r := &Request{
		ID:         rid,
		Priority:   o.Priority,
		EnqueuedAt: now,
		QueuedAt:   now,
		Deadline:   o.Deadline,
		Metadata:   o.Metadata,
		State:      StateQueued,
		ctx:        ctx,
	}

	if ctx != nil {
		if d, ok := ctx.Deadline(); ok && (r.Deadline.IsZero() || d.Before(r.Deadline)) {
			r.Deadline = d
		}
	}

	return r
}

// Context returns the caller's cancellation signal. It is never nil for
// requests built with New given a non-nil context; a nil context means
// the request cannot be cancelled.
func (r *Request) Context() context.Context { return r.ctx }

// Cancelled reports whether the caller's cancellation signal has fired.
func (r *Request) Cancelled() bool {
	return r.ctx != nil && r.ctx.Err() != nil
}

// Err returns the cancellation cause, or nil while the signal is intact.
func (r *Request) Err() error {
	if r.ctx == nil {
		return nil
	}
	return r.ctx.Err()
}

// Expired reports whether the request has a deadline at or before now.
// Requests without a deadline never expire.
func (r *Request) Expired(now time.Time) bool {
	return !r.Deadline.IsZero() && !r.Deadline.After(now)
}
