// Package backoff provides pluggable retry delay strategies for request
// scheduling. All strategies are safe for concurrent use (they are stateless).
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before re-running a request that
	// has already failed attempt+1 times. Attempt is 0-indexed: attempt 0
	// is the wait after the first failure.
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Linear
// ──────────────────────────────────────────────────

// Linear increases the delay linearly with the attempt number.
// Delay = min(Base * (attempt+1), Max).
type Linear struct {
	Base time.Duration
	Max  time.Duration
}

// NewLinear creates a linear backoff strategy.
func NewLinear(base, maxDelay time.Duration) *Linear {
	return &Linear{Base: base, Max: maxDelay}
}

// Delay returns Base * (attempt+1), capped at Max.
func (l *Linear) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := l.Base * time.Duration(attempt+1)
	if l.Max > 0 && d > l.Max {
		return l.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential doubles the delay each attempt.
// Delay = min(Base * 2^attempt, Max).
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(base, maxDelay time.Duration) *Exponential {
	return &Exponential{Base: base, Max: maxDelay}
}

// Delay returns Base * 2^attempt, capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	return exponential(e.Base, e.Max, attempt)
}

// ──────────────────────────────────────────────────
// ExponentialJitter
// ──────────────────────────────────────────────────

// ExponentialJitter blends a jitter fraction over an exponential base.
// The raw exponential delay min(Base * 2^attempt, Max) is scaled to
//
//	raw*(1 - Jitter/2) + random(0, Jitter*raw)
//
// so samples spread symmetrically around the raw value: Jitter 0.5 yields
// delays in [0.75*raw, 1.25*raw] before the final cap at Max. Jitter 0 is
// fully deterministic and equals Exponential. This prevents thundering herd
// when many retries land on the same boundary.
type ExponentialJitter struct {
	Base time.Duration
	Max  time.Duration

	// Jitter is the randomized fraction of the delay, in [0, 1].
	Jitter float64
}

// NewExponentialJitter creates an exponential backoff with blended jitter.
func NewExponentialJitter(base, maxDelay time.Duration, jitter float64) *ExponentialJitter {
	return &ExponentialJitter{Base: base, Max: maxDelay, Jitter: jitter}
}

// Delay returns the jittered exponential delay for the given attempt.
func (e *ExponentialJitter) Delay(attempt int) time.Duration {
	raw := float64(exponential(e.Base, e.Max, attempt))
	if e.Jitter > 0 {
		raw = raw*(1-e.Jitter/2) + rand.Float64()*e.Jitter*raw //nolint:gosec // jitter intentionally uses non-crypto rand
	}
	if raw < 0 {
		raw = 0
	}
	d := time.Duration(raw)
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// exponential computes min(base * 2^attempt, max) in float space so large
// attempt values saturate at max instead of overflowing.
func exponential(base, maxDelay time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(base) * math.Pow(2, float64(attempt))
	if maxDelay > 0 && d > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(d)
}

// ──────────────────────────────────────────────────
// Default
// ──────────────────────────────────────────────────

// DefaultStrategy returns the default backoff used by the scheduler:
// ExponentialJitter with 1s base, 30s max, and 0.5 jitter.
func DefaultStrategy() Strategy {
	return NewExponentialJitter(1*time.Second, 30*time.Second, 0.5)
}
