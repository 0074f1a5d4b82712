package ext

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/pacer/request"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type requestQueuedEntry struct {
	name string
	hook RequestQueued
}

type requestStartedEntry struct {
	name string
	hook RequestStarted
}

type requestCompletedEntry struct {
	name string
	hook RequestCompleted
}

type requestFailedEntry struct {
	name string
	hook RequestFailed
}

type requestRetryingEntry struct {
	name string
	hook RequestRetrying
}

type rateLimitedEntry struct {
	name string
	hook RateLimited
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
// Registration and deregistration are safe while the scheduler runs.
type Registry struct {
	mu         sync.RWMutex
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	requestQueued    []requestQueuedEntry
	requestStarted   []requestStartedEntry
	requestCompleted []requestCompletedEntry
	requestFailed    []requestFailedEntry
	requestRetrying  []requestRetryingEntry
	rateLimited      []rateLimitedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(RequestQueued); ok {
		r.requestQueued = append(r.requestQueued, requestQueuedEntry{name, h})
	}
	if h, ok := e.(RequestStarted); ok {
		r.requestStarted = append(r.requestStarted, requestStartedEntry{name, h})
	}
	if h, ok := e.(RequestCompleted); ok {
		r.requestCompleted = append(r.requestCompleted, requestCompletedEntry{name, h})
	}
	if h, ok := e.(RequestFailed); ok {
		r.requestFailed = append(r.requestFailed, requestFailedEntry{name, h})
	}
	if h, ok := e.(RequestRetrying); ok {
		r.requestRetrying = append(r.requestRetrying, requestRetryingEntry{name, h})
	}
	if h, ok := e.(RateLimited); ok {
		r.rateLimited = append(r.rateLimited, rateLimitedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Deregister removes every extension registered under name from the
// registry and all hook caches. Unknown names are ignored.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Rebuild into fresh slices so snapshots taken by in-flight emits
	// stay intact.
	exts := make([]Extension, 0, len(r.extensions))
	for _, e := range r.extensions {
		if e.Name() != name {
			exts = append(exts, e)
		}
	}
	r.extensions = exts

	queued := make([]requestQueuedEntry, 0, len(r.requestQueued))
	for _, e := range r.requestQueued {
		if e.name != name {
			queued = append(queued, e)
		}
	}
	r.requestQueued = queued

	started := make([]requestStartedEntry, 0, len(r.requestStarted))
	for _, e := range r.requestStarted {
		if e.name != name {
			started = append(started, e)
		}
	}
	r.requestStarted = started

	completed := make([]requestCompletedEntry, 0, len(r.requestCompleted))
	for _, e := range r.requestCompleted {
		if e.name != name {
			completed = append(completed, e)
		}
	}
	r.requestCompleted = completed

	failed := make([]requestFailedEntry, 0, len(r.requestFailed))
	for _, e := range r.requestFailed {
		if e.name != name {
			failed = append(failed, e)
		}
	}
	r.requestFailed = failed

	retrying := make([]requestRetryingEntry, 0, len(r.requestRetrying))
	for _, e := range r.requestRetrying {
		if e.name != name {
			retrying = append(retrying, e)
		}
	}
	r.requestRetrying = retrying

	limited := make([]rateLimitedEntry, 0, len(r.rateLimited))
	for _, e := range r.rateLimited {
		if e.name != name {
			limited = append(limited, e)
		}
	}
	r.rateLimited = limited

	shut := make([]shutdownEntry, 0, len(r.shutdown))
	for _, e := range r.shutdown {
		if e.name != name {
			shut = append(shut, e)
		}
	}
	r.shutdown = shut
}

// Extensions returns a snapshot of all registered extensions.
func (r *Registry) Extensions() []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Extension, len(r.extensions))
	copy(out, r.extensions)
	return out
}

// ──────────────────────────────────────────────────
// Request event emitters
// ──────────────────────────────────────────────────

// EmitRequestQueued notifies all extensions that implement RequestQueued.
func (r *Registry) EmitRequestQueued(ctx context.Context, req *request.Request) {
	r.mu.RLock()
	entries := r.requestQueued
	r.mu.RUnlock()
	for _, e := range entries {
		r.safeCall("OnRequestQueued", e.name, func() error {
			return e.hook.OnRequestQueued(ctx, req)
		})
	}
}

// EmitRequestStarted notifies all extensions that implement RequestStarted.
func (r *Registry) EmitRequestStarted(ctx context.Context, req *request.Request) {
	r.mu.RLock()
	entries := r.requestStarted
	r.mu.RUnlock()
	for _, e := range entries {
		r.safeCall("OnRequestStarted", e.name, func() error {
			return e.hook.OnRequestStarted(ctx, req)
		})
	}
}

// EmitRequestCompleted notifies all extensions that implement RequestCompleted.
func (r *Registry) EmitRequestCompleted(ctx context.Context, req *request.Request, elapsed time.Duration) {
	r.mu.RLock()
	entries := r.requestCompleted
	r.mu.RUnlock()
	for _, e := range entries {
		r.safeCall("OnRequestCompleted", e.name, func() error {
			return e.hook.OnRequestCompleted(ctx, req, elapsed)
		})
	}
}

// EmitRequestFailed notifies all extensions that implement RequestFailed.
func (r *Registry) EmitRequestFailed(ctx context.Context, req *request.Request, reqErr error) {
	r.mu.RLock()
	entries := r.requestFailed
	r.mu.RUnlock()
	for _, e := range entries {
		r.safeCall("OnRequestFailed", e.name, func() error {
			return e.hook.OnRequestFailed(ctx, req, reqErr)
		})
	}
}

// EmitRequestRetrying notifies all extensions that implement RequestRetrying.
func (r *Registry) EmitRequestRetrying(ctx context.Context, req *request.Request, attempt int, delay time.Duration) {
	r.mu.RLock()
	entries := r.requestRetrying
	r.mu.RUnlock()
	for _, e := range entries {
		r.safeCall("OnRequestRetrying", e.name, func() error {
			return e.hook.OnRequestRetrying(ctx, req, attempt, delay)
		})
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitRateLimited notifies all extensions that implement RateLimited.
func (r *Registry) EmitRateLimited(ctx context.Context, schedulerID string, wait time.Duration) {
	r.mu.RLock()
	entries := r.rateLimited
	r.mu.RUnlock()
	for _, e := range entries {
		r.safeCall("OnRateLimited", e.name, func() error {
			return e.hook.OnRateLimited(ctx, schedulerID, wait)
		})
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	entries := r.shutdown
	r.mu.RUnlock()
	for _, e := range entries {
		r.safeCall("OnShutdown", e.name, func() error {
			return e.hook.OnShutdown(ctx)
		})
	}
}

// safeCall invokes a single hook with fault isolation. Errors are logged
// and swallowed; panics are recovered, logged, and swallowed. A misbehaving
// extension must never abort the admission loop or other listeners.
func (r *Registry) safeCall(hook, extName string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("extension hook panic",
				slog.String("hook", hook),
				slog.String("extension", extName),
				slog.Any("panic", rec),
			)
		}
	}()

	if err := fn(); err != nil {
		r.logHookError(hook, extName, err)
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block scheduling.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
