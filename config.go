package pacer

import "time"

// Limit is a fixed-window rate limit: at most MaxRequests dispatches per
// Interval.
type Limit struct {
	MaxRequests int
	Interval    time.Duration
}

// Config holds configuration for a Scheduler.
type Config struct {
	// ID identifies the scheduler. It doubles as the rate-limit counter
	// key, so schedulers sharing an ID and a store share one window.
	// A unique id is generated when empty.
	ID string

	// Limit is the static fixed-window rate limit.
	Limit Limit

	// QuotaFallback, when set, replaces Limit as the static limit used
	// while a dynamic quota source is failing.
	QuotaFallback *Limit

	// MaxQueueSize caps the number of queued requests; Schedule fails
	// with ErrQueueFull once the cap is reached. Zero means unbounded.
	// Executing requests do not count against the cap.
	MaxQueueSize int

	// Concurrency is the maximum number of requests executing at once.
	Concurrency int

	// Retry controls retry eligibility and backoff timing.
	Retry RetryConfig
}

// DefaultConfig returns a Config with sensible defaults: 10 requests per
// second, one at a time, unbounded queue, default retry policy.
func DefaultConfig() Config {
	return Config{
		Limit:       Limit{MaxRequests: 10, Interval: 1 * time.Second},
		Concurrency: 1,
		Retry:       DefaultRetryConfig(),
	}
}

// RetryConfig controls which failures are retried and how long to wait
// between attempts.
type RetryConfig struct {
	// MaxRetries is the number of re-runs after the first failure.
	// Zero disables retries.
	MaxRetries int

	// BaseDelay seeds the exponential backoff.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// JitterFactor is the randomized fraction of each delay, in [0, 1].
	// Zero makes delays fully deterministic.
	JitterFactor float64

	// RetryOnErrors lists machine-readable error codes (see Coder)
	// considered transient.
	RetryOnErrors []string

	// RetryOnStatus lists HTTP status codes (see StatusCoder) considered
	// transient.
	RetryOnStatus []int
}

// DefaultRetryConfig returns the default retry policy: 3 retries with
// exponential backoff from 1s to 30s at 0.5 jitter, retrying on the usual
// transient HTTP statuses.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      30 * time.Second,
		JitterFactor:  0.5,
		RetryOnStatus: []int{429, 500, 502, 503, 504},
	}
}

// withDefaults replaces invalid or zero fields with working values.
func (c Config) withDefaults() Config {
	if c.Limit.MaxRequests < 1 {
		c.Limit.MaxRequests = 10
	}
	if c.Limit.Interval <= 0 {
		c.Limit.Interval = 1 * time.Second
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.MaxQueueSize < 0 {
		c.MaxQueueSize = 0
	}
	if c.QuotaFallback != nil {
		fb := *c.QuotaFallback
		if fb.MaxRequests < 1 {
			fb.MaxRequests = c.Limit.MaxRequests
		}
		if fb.Interval <= 0 {
			fb.Interval = c.Limit.Interval
		}
		c.QuotaFallback = &fb
	}
	c.Retry = c.Retry.withDefaults()
	return c
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 1 * time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
	return c
}
