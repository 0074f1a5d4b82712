package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/pacer/ext"
	"github.com/xraph/pacer/id"
	"github.com/xraph/pacer/request"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	name  string
	calls []string
	log   *[]string // optional shared log for ordering checks
}

func (e *allHooksExt) Name() string {
	if e.name != "" {
		return e.name
	}
	return "all-hooks"
}

func (e *allHooksExt) record(call string) {
	e.calls = append(e.calls, call)
	if e.log != nil {
		*e.log = append(*e.log, e.Name())
	}
}

func (e *allHooksExt) OnRequestQueued(_ context.Context, _ *request.Request) error {
	e.record("OnRequestQueued")
	return nil
}

func (e *allHooksExt) OnRequestStarted(_ context.Context, _ *request.Request) error {
	e.record("OnRequestStarted")
	return nil
}

func (e *allHooksExt) OnRequestCompleted(_ context.Context, _ *request.Request, _ time.Duration) error {
	e.record("OnRequestCompleted")
	return nil
}

func (e *allHooksExt) OnRequestFailed(_ context.Context, _ *request.Request, _ error) error {
	e.record("OnRequestFailed")
	return nil
}

func (e *allHooksExt) OnRequestRetrying(_ context.Context, _ *request.Request, _ int, _ time.Duration) error {
	e.record("OnRequestRetrying")
	return nil
}

func (e *allHooksExt) OnRateLimited(_ context.Context, _ string, _ time.Duration) error {
	e.record("OnRateLimited")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.record("OnShutdown")
	return nil
}

// queuedOnlyExt only implements the queued and completed hooks.
type queuedOnlyExt struct {
	calls []string
}

func (e *queuedOnlyExt) Name() string { return "queued-only" }

func (e *queuedOnlyExt) OnRequestQueued(_ context.Context, _ *request.Request) error {
	e.calls = append(e.calls, "OnRequestQueued")
	return nil
}

func (e *queuedOnlyExt) OnRequestCompleted(_ context.Context, _ *request.Request, _ time.Duration) error {
	e.calls = append(e.calls, "OnRequestCompleted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnRequestQueued(_ context.Context, _ *request.Request) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// panickyExt panics inside its hook.
type panickyExt struct{}

func (e *panickyExt) Name() string { return "panicky" }

func (e *panickyExt) OnRequestQueued(_ context.Context, _ *request.Request) error {
	panic("hook panic")
}

func newTestRequest() *request.Request {
	return request.New(id.NewRequestID(), context.Background())
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	qo := &queuedOnlyExt{}
	r.Register(all)
	r.Register(qo)

	ctx := context.Background()
	req := newTestRequest()

	// Both implement OnRequestQueued → both called.
	r.EmitRequestQueued(ctx, req)
	if len(all.calls) != 1 || all.calls[0] != "OnRequestQueued" {
		t.Fatalf("all: expected [OnRequestQueued], got %v", all.calls)
	}
	if len(qo.calls) != 1 || qo.calls[0] != "OnRequestQueued" {
		t.Fatalf("qo: expected [OnRequestQueued], got %v", qo.calls)
	}

	// Only all implements OnRequestStarted → qo not called.
	r.EmitRequestStarted(ctx, req)
	if len(all.calls) != 2 || all.calls[1] != "OnRequestStarted" {
		t.Fatalf("all: expected OnRequestStarted as 2nd, got %v", all.calls)
	}
	if len(qo.calls) != 1 {
		t.Fatalf("qo: should still have 1 call, got %v", qo.calls)
	}
}

func TestRegistry_AllRequestHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	req := newTestRequest()

	r.EmitRequestQueued(ctx, req)
	r.EmitRequestStarted(ctx, req)
	r.EmitRequestCompleted(ctx, req, time.Second)
	r.EmitRequestFailed(ctx, req, errors.New("fail"))
	r.EmitRequestRetrying(ctx, req, 1, time.Second)

	expected := []string{
		"OnRequestQueued", "OnRequestStarted", "OnRequestCompleted",
		"OnRequestFailed", "OnRequestRetrying",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_RateLimitedAndShutdownFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	r.EmitRateLimited(ctx, "pacer-1", 500*time.Millisecond)
	r.EmitShutdown(ctx)

	if len(all.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d: %v", len(all.calls), all.calls)
	}
	if all.calls[0] != "OnRateLimited" {
		t.Errorf("call[0] = %q, want OnRateLimited", all.calls[0])
	}
	if all.calls[1] != "OnShutdown" {
		t.Errorf("call[1] = %q, want OnShutdown", all.calls[1])
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	failing := &failingExt{}
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(failing)
	r.Register(all)

	ctx := context.Background()

	// No panic, no error propagation. allHooksExt should still fire.
	r.EmitRequestQueued(ctx, newTestRequest())

	if len(all.calls) != 1 || all.calls[0] != "OnRequestQueued" {
		t.Fatalf("all: expected [OnRequestQueued] despite failing ext, got %v", all.calls)
	}
}

func TestRegistry_HookPanicRecovered(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&panickyExt{})
	all := &allHooksExt{}
	r.Register(all)

	// The panic must be contained to the panicking extension.
	r.EmitRequestQueued(context.Background(), newTestRequest())

	if len(all.calls) != 1 || all.calls[0] != "OnRequestQueued" {
		t.Fatalf("all: expected [OnRequestQueued] despite panicking ext, got %v", all.calls)
	}
}

func TestRegistry_Deregister(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	first := &allHooksExt{name: "first"}
	second := &allHooksExt{name: "second"}
	r.Register(first)
	r.Register(second)

	r.Deregister("first")

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension after Deregister, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "second" {
		t.Fatalf("expected remaining extension 'second', got %q", got)
	}

	r.EmitRequestQueued(context.Background(), newTestRequest())
	if len(first.calls) != 0 {
		t.Errorf("deregistered extension was called: %v", first.calls)
	}
	if len(second.calls) != 1 {
		t.Errorf("remaining extension calls = %d, want 1", len(second.calls))
	}

	// Unknown names are ignored.
	r.Deregister("missing")
	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ctx := context.Background()
	req := request.New(id.NewRequestID(), ctx)

	// None of these should panic or error.
	r.EmitRequestQueued(ctx, req)
	r.EmitRequestStarted(ctx, req)
	r.EmitRequestCompleted(ctx, req, time.Second)
	r.EmitRequestFailed(ctx, req, errors.New("x"))
	r.EmitRequestRetrying(ctx, req, 1, time.Second)
	r.EmitRateLimited(ctx, "pacer-1", time.Second)
	r.EmitShutdown(ctx)
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	var order []string
	first := &allHooksExt{name: "first", log: &order}
	second := &allHooksExt{name: "second", log: &order}
	r.Register(first)
	r.Register(second)

	r.EmitRequestQueued(context.Background(), newTestRequest())

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected registration order [first second], got %v", order)
	}
}
