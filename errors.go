package pacer

import "errors"

var (
	// Admission errors. Surfaced by Schedule immediately, never retried.
	ErrSchedulerDestroyed = errors.New("pacer: scheduler destroyed")
	ErrQueueFull          = errors.New("pacer: queue full")
	ErrNilTask            = errors.New("pacer: nil task")

	// Wait errors. Surfaced when a request is abandoned while queued or
	// retry-waiting.
	ErrDeadlineExceeded = errors.New("pacer: deadline exceeded")
	ErrCancelled        = errors.New("pacer: request cancelled")

	// Dependency errors.
	ErrStoreFailure = errors.New("pacer: rate-limit store failure")
)
