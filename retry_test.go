package pacer_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/xraph/pacer"
)

func TestRetryConfig_RetryableStatus(t *testing.T) {
	cfg := pacer.DefaultRetryConfig()

	cases := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{200, false},
		{400, false},
		{404, false},
	}
	for _, tc := range cases {
		if got := cfg.RetryableStatus(tc.status); got != tc.want {
			t.Errorf("RetryableStatus(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestRetryConfig_Retryable(t *testing.T) {
	cfg := pacer.DefaultRetryConfig()
	cfg.RetryOnErrors = []string{"UNAVAILABLE", "throttled"}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context cancelled", context.Canceled, false},
		{"wrapped cancellation", fmt.Errorf("call failed: %w", context.Canceled), false},
		{"context deadline", context.DeadlineExceeded, true},
		{"matching code", &apiError{code: "unavailable"}, true},
		{"matching code other case", &apiError{code: "Throttled"}, true},
		{"unknown code", &apiError{code: "INVALID_ARGUMENT"}, false},
		{"retryable status", &httpError{status: 503}, true},
		{"client error status", &httpError{status: 400}, false},
		{"wrapped retryable status", fmt.Errorf("upstream: %w", &httpError{status: 429}), true},
		{"net timeout", &fakeNetError{timeout: true}, true},
		{"net non-timeout", &fakeNetError{timeout: false}, false},
		{"connection reset message", errors.New("read tcp: connection reset by peer"), true},
		{"errno style message", errors.New("dial failed: ECONNREFUSED"), true},
		{"plain failure", errors.New("row not found"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cfg.Retryable(tc.err); got != tc.want {
				t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// apiError carries a machine-readable code like the ones API clients
// surface.
type apiError struct {
	code string
}

var _ pacer.Coder = (*apiError)(nil)

func (e *apiError) Error() string { return "api error: " + e.code }
func (e *apiError) Code() string  { return e.code }

// httpError carries an HTTP status code.
type httpError struct {
	status int
}

var _ pacer.StatusCoder = (*httpError)(nil)

func (e *httpError) Error() string   { return fmt.Sprintf("http %d", e.status) }
func (e *httpError) StatusCode() int { return e.status }

// fakeNetError implements net.Error with a controllable timeout flag.
type fakeNetError struct {
	timeout bool
}

var _ net.Error = (*fakeNetError)(nil)

func (e *fakeNetError) Error() string   { return "synthetic failure" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }
