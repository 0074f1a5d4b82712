package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/pacer/ext"
	"github.com/xraph/pacer/request"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Extension)(nil)
	_ ext.RequestQueued    = (*Extension)(nil)
	_ ext.RequestStarted   = (*Extension)(nil)
	_ ext.RequestCompleted = (*Extension)(nil)
	_ ext.RequestFailed    = (*Extension)(nil)
	_ ext.RequestRetrying  = (*Extension)(nil)
	_ ext.RateLimited      = (*Extension)(nil)
	_ ext.Shutdown         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so this package carries no dependency on any
// particular audit store; callers inject an adapter at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral representation of an audit record.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
//
// Example bridging to an audit service client:
//
//	audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return auditClient.Write(ctx, evt.Action, evt.Resource, evt.ResourceID, evt.Metadata)
//	})
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity levels assigned to audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome values assigned to audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges scheduler lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Request lifecycle hooks ─────────────────────────

// OnRequestQueued implements ext.RequestQueued.
func (e *Extension) OnRequestQueued(ctx context.Context, req *request.Request) error {
	return e.record(ctx, ActionRequestQueued, SeverityInfo, OutcomeSuccess,
		ResourceRequest, req.ID.String(), CategoryRequest, nil,
		"priority", req.Priority,
	)
}

// OnRequestStarted implements ext.RequestStarted.
func (e *Extension) OnRequestStarted(ctx context.Context, req *request.Request) error {
	return e.record(ctx, ActionRequestStarted, SeverityInfo, OutcomeSuccess,
		ResourceRequest, req.ID.String(), CategoryRequest, nil,
		"priority", req.Priority,
		"queue_wait_ms", time.Since(req.QueuedAt).Milliseconds(),
	)
}

// OnRequestCompleted implements ext.RequestCompleted.
func (e *Extension) OnRequestCompleted(ctx context.Context, req *request.Request, elapsed time.Duration) error {
	return e.record(ctx, ActionRequestCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRequest, req.ID.String(), CategoryRequest, nil,
		"priority", req.Priority,
		"retries", req.Retries,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRequestFailed implements ext.RequestFailed.
func (e *Extension) OnRequestFailed(ctx context.Context, req *request.Request, reqErr error) error {
	return e.record(ctx, ActionRequestFailed, SeverityCritical, OutcomeFailure,
		ResourceRequest, req.ID.String(), CategoryRequest, reqErr,
		"priority", req.Priority,
		"retries", req.Retries,
	)
}

// OnRequestRetrying implements ext.RequestRetrying.
func (e *Extension) OnRequestRetrying(ctx context.Context, req *request.Request, attempt int, delay time.Duration) error {
	return e.record(ctx, ActionRequestRetrying, SeverityWarning, OutcomeFailure,
		ResourceRequest, req.ID.String(), CategoryRequest, nil,
		"priority", req.Priority,
		"attempt", attempt,
		"delay_ms", delay.Milliseconds(),
	)
}

// ── Scheduler lifecycle hooks ───────────────────────

// OnRateLimited implements ext.RateLimited.
func (e *Extension) OnRateLimited(ctx context.Context, schedulerID string, wait time.Duration) error {
	return e.record(ctx, ActionRateLimited, SeverityWarning, OutcomeSuccess,
		ResourceScheduler, schedulerID, CategoryScheduler, nil,
		"wait_ms", wait.Milliseconds(),
	)
}

// OnShutdown implements ext.Shutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionShutdown, SeverityInfo, OutcomeSuccess,
		ResourceScheduler, "", CategoryScheduler, nil,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
