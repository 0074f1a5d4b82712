package request_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/pacer/id"
	"github.com/xraph/pacer/request"
)

func TestNewDefaults(t *testing.T) {
	rid := id.NewRequestID()
	r := request.New(rid, context.Background())

	if r.ID.String() != rid.String() {
		t.Errorf("expected id %q, got %q", rid.String(), r.ID.String())
	}
	if r.Priority != 0 {
		t.Errorf("expected priority 0, got %d", r.Priority)
	}
	if r.State != request.StateQueued {
		t.Errorf("expected state %q, got %q", request.StateQueued, r.State)
	}
	if r.EnqueuedAt.IsZero() {
		t.Error("expected EnqueuedAt to be set")
	}
	if !r.QueuedAt.Equal(r.EnqueuedAt) {
		t.Error("expected QueuedAt to start equal to EnqueuedAt")
	}
	if !r.Deadline.IsZero() {
		t.Errorf("expected no deadline, got %v", r.Deadline)
	}
	if r.Retries != 0 {
		t.Errorf("expected 0 retries, got %d", r.Retries)
	}
}

func TestOptions(t *testing.T) {
	deadline := time.Now().Add(time.Minute)
	r := request.New(id.NewRequestID(), context.Background(),
		request.WithPriority(-7),
		request.WithDeadline(deadline),
		request.WithMetadataValue("tenant", "acme"),
		request.WithMetadataValue("attempt_tag", 3),
	)

	if r.Priority != -7 {
		t.Errorf("expected priority -7, got %d", r.Priority)
	}
	if !r.Deadline.Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, r.Deadline)
	}
	if got := r.Metadata["tenant"]; got != "acme" {
		t.Errorf("expected metadata tenant=acme, got %v", got)
	}
	if got := r.Metadata["attempt_tag"]; got != 3 {
		t.Errorf("expected metadata attempt_tag=3, got %v", got)
	}
}

func TestWithMetadataReplaces(t *testing.T) {
	md := map[string]any{"k": "v"}
	r := request.New(id.NewRequestID(), context.Background(), request.WithMetadata(md))
	if got := r.Metadata["k"]; got != "v" {
		t.Errorf("expected metadata k=v, got %v", got)
	}
}

func TestContextDeadlineFoldedIn(t *testing.T) {
	far := time.Now().Add(time.Hour)
	near := time.Now().Add(time.Minute)

	ctx, cancel := context.WithDeadline(context.Background(), near)
	defer cancel()

	// Context deadline earlier than the option: context wins.
	r := request.New(id.NewRequestID(), ctx, request.WithDeadline(far))
	if !r.Deadline.Equal(near) {
		t.Errorf("expected context deadline %v to win, got %v", near, r.Deadline)
	}

	// Option deadline earlier than the context: option wins.
	soon := time.Now().Add(time.Second)
	r = request.New(id.NewRequestID(), ctx, request.WithDeadline(soon))
	if !r.Deadline.Equal(soon) {
		t.Errorf("expected option deadline %v to win, got %v", soon, r.Deadline)
	}

	// Context deadline alone becomes the request deadline.
	r = request.New(id.NewRequestID(), ctx)
	if !r.Deadline.Equal(near) {
		t.Errorf("expected deadline %v from context, got %v", near, r.Deadline)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := request.New(id.NewRequestID(), ctx)

	if r.Cancelled() {
		t.Error("expected request not cancelled before signal fires")
	}
	if r.Err() != nil {
		t.Errorf("expected nil Err, got %v", r.Err())
	}

	cancel()

	if !r.Cancelled() {
		t.Error("expected request cancelled after signal fires")
	}
	if r.Err() == nil {
		t.Error("expected non-nil Err after cancellation")
	}
}

func TestNilContext(t *testing.T) {
	r := request.New(id.NewRequestID(), nil)
	if r.Cancelled() {
		t.Error("nil-context request must never report cancelled")
	}
	if r.Err() != nil {
		t.Errorf("expected nil Err, got %v", r.Err())
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		deadline time.Time
		at       time.Time
		want     bool
	}{
		{"no deadline", time.Time{}, now, false},
		{"before deadline", now.Add(time.Second), now, false},
		{"exactly at deadline", now, now, true},
		{"past deadline", now.Add(-time.Millisecond), now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := request.New(id.NewRequestID(), context.Background())
			r.Deadline = tt.deadline
			if got := r.Expired(tt.at); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
