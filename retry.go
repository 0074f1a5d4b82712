package pacer

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Coder is implemented by errors that carry a machine-readable code.
// Codes are matched case-insensitively against RetryConfig.RetryOnErrors.
type Coder interface {
	Code() string
}

// StatusCoder is implemented by errors that carry an HTTP status code,
// matched against RetryConfig.RetryOnStatus.
type StatusCoder interface {
	StatusCode() int
}

// transientIndicators are case-insensitive substrings that mark an error
// message as a network, timeout, or socket failure. They cover both Go
// error text and errno-style codes surfaced by wrapped client libraries.
var transientIndicators = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"broken pipe",
	"socket",
	"network",
	"econnreset",
	"econnrefused",
	"etimedout",
	"epipe",
	"temporarily unavailable",
	"service unavailable",
	"too many requests",
}

// Retryable reports whether err is transient under this configuration.
// An error is retryable when its machine-readable code is in
// RetryOnErrors, its HTTP status is in RetryOnStatus, it is a net.Error
// timeout, or its message contains a network/timeout/socket indicator.
// Context cancellation is never retryable: the caller walked away.
func (c RetryConfig) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var coder Coder
	if errors.As(err, &coder) {
		code := coder.Code()
		for _, allowed := range c.RetryOnErrors {
			if strings.EqualFold(code, allowed) {
				return true
			}
		}
	}

	var statusCoder StatusCoder
	if errors.As(err, &statusCoder) && c.RetryableStatus(statusCoder.StatusCode()) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range transientIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}

	return false
}

// RetryableStatus reports whether status is in the RetryOnStatus allowlist.
func (c RetryConfig) RetryableStatus(status int) bool {
	for _, allowed := range c.RetryOnStatus {
		if status == allowed {
			return true
		}
	}
	return false
}
