package pacer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/pacer/request"
)

// run is the admission loop. It wakes when work arrives, a slot frees,
// or a timer fires, and exits when the scheduler is destroyed.
func (s *Scheduler) run() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.wake:
			s.admit()
		case <-s.baseCtx.Done():
			return
		}
	}
}

// wakeup nudges the admission loop. The buffered channel coalesces
// concurrent wakeups into a single pass.
func (s *Scheduler) wakeup() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// admit dispatches as many queued requests as free slots and the rate
// limit allow.
func (s *Scheduler) admit() {
	for {
		s.sweep()
		if !s.dispatchOne() {
			return
		}
	}
}

// rejection pairs a finalized request with its error so events can be
// emitted after the lock is released.
type rejection struct {
	req *request.Request
	err error
}

// sweep drops queued requests whose deadline passed or whose caller
// cancelled, resolving each with the matching error.
func (s *Scheduler) sweep() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	var rejected []rejection
	now := time.Now()
	for _, r := range s.queue.RemoveExpired(now) {
		s.rejectLocked(r, ErrDeadlineExceeded)
		rejected = append(rejected, rejection{req: r, err: ErrDeadlineExceeded})
	}
	for _, r := range s.queue.RemoveCancelled() {
		s.rejectLocked(r, ErrCancelled)
		rejected = append(rejected, rejection{req: r, err: ErrCancelled})
	}
	s.mu.Unlock()

	for _, rj := range rejected {
		s.exts.EmitRequestFailed(context.Background(), rj.req, rj.err)
	}
}

// expire resolves a request whose deadline passed while it waited,
// whether queued or holding a retry timer. Executing requests are left
// alone; they run to completion.
func (s *Scheduler) expire(rid string) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	p, ok := s.items[rid]
	if !ok || p.req.State == request.StateExecuting {
		s.mu.Unlock()
		return
	}
	if !p.req.Expired(time.Now()) {
		s.mu.Unlock()
		return
	}
	if t, ok := s.retryTimers[rid]; ok {
		t.Stop()
		delete(s.retryTimers, rid)
	}
	s.queue.Remove(rid)
	req := p.req
	s.rejectLocked(req, ErrDeadlineExceeded)
	s.mu.Unlock()

	s.exts.EmitRequestFailed(context.Background(), req, ErrDeadlineExceeded)
}

// rejectLocked finalizes req with err. The request must already be out
// of the queue. Callers emit RequestFailed after releasing the lock.
func (s *Scheduler) rejectLocked(req *request.Request, err error) {
	rid := req.ID.String()
	p, ok := s.items[rid]
	if !ok {
		return
	}
	delete(s.items, rid)
	req.State = request.StateFailed
	s.stats.rejected++
	p.resolve(outcome{err: err})
}

// dispatchOne admits and launches a single request. It returns false
// when the admission pass should stop: no free slot, empty queue,
// rate-limit deferral, or destruction.
func (s *Scheduler) dispatchOne() bool {
	s.mu.Lock()
	if s.destroyed || s.active >= s.cfg.Concurrency || s.queue.Empty() {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	// The gate runs outside the lock: store increments and quota lookups
	// must not stall enqueues or completions.
	admit, wait, gateErr := s.gate()

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return false
	}

	if gateErr != nil {
		// The rate-limit dependency is down. Fail the head request
		// rather than dispatching around the limit.
		head := s.queue.Dequeue()
		if head == nil {
			s.mu.Unlock()
			return false
		}
		err := fmt.Errorf("%w: %v", ErrStoreFailure, gateErr)
		s.rejectLocked(head, err)
		s.mu.Unlock()

		s.logger.Error("rate-limit store failure",
			slog.String("request_id", head.ID.String()),
			slog.String("error", gateErr.Error()),
		)
		s.exts.EmitRequestFailed(context.Background(), head, err)
		return true
	}

	if !admit {
		emit := !s.rateDeferred
		s.rateDeferred = true
		s.armRecheckLocked(wait)
		s.mu.Unlock()

		if emit {
			s.logger.Debug("rate limit reached, deferring dispatch",
				slog.String("scheduler_id", s.id),
				slog.Duration("wait", wait),
			)
			s.exts.EmitRateLimited(context.Background(), s.id, wait)
		}
		return false
	}

	head := s.queue.Dequeue()
	if head == nil {
		s.mu.Unlock()
		return false
	}

	// Revalidate: the head may have expired or been cancelled while the
	// gate ran.
	now := time.Now()
	if head.Expired(now) {
		s.rejectLocked(head, ErrDeadlineExceeded)
		s.mu.Unlock()
		s.exts.EmitRequestFailed(context.Background(), head, ErrDeadlineExceeded)
		return true
	}
	if head.Cancelled() {
		s.rejectLocked(head, ErrCancelled)
		s.mu.Unlock()
		s.exts.EmitRequestFailed(context.Background(), head, ErrCancelled)
		return true
	}

	p := s.items[head.ID.String()]
	head.State = request.StateExecuting
	s.active++
	s.rateDeferred = false
	s.inflight.Add(1)
	s.mu.Unlock()

	s.exts.EmitRequestStarted(context.Background(), head)
	go s.execute(p)
	return true
}

// gate decides whether one more request may dispatch right now. When it
// defers, wait is how long until the next recheck. A non-nil error means
// the rate-limit dependency failed and the head request must not proceed.
func (s *Scheduler) gate() (bool, time.Duration, error) {
	if s.quota != nil {
		st, err := s.quota.RateLimitStatus(s.baseCtx)
		if err == nil {
			if st.Remaining > 0 {
				return true, 0, nil
			}
			wait := time.Until(st.ResetTime())
			if wait < time.Second {
				// Reset has whole-second granularity and may already
				// be in the past; recheck after a beat instead of
				// spinning.
				wait = time.Second
			}
			return false, wait, nil
		}
		s.logger.Warn("quota lookup failed, falling back to static limit",
			slog.String("scheduler_id", s.id),
			slog.String("error", err.Error()),
		)
		return s.fixedWindow(s.fallbackLimit())
	}
	return s.fixedWindow(s.cfg.Limit)
}

// fallbackLimit is the static limit applied while the quota source is
// unreachable.
func (s *Scheduler) fallbackLimit() Limit {
	if s.cfg.QuotaFallback != nil {
		return *s.cfg.QuotaFallback
	}
	return s.cfg.Limit
}

// fixedWindow consumes one increment in the current window and admits
// while the count stays within the limit. On deferral it returns the
// window's remaining TTL as the wait.
func (s *Scheduler) fixedWindow(limit Limit) (bool, time.Duration, error) {
	count, err := s.store.Increment(s.baseCtx, s.id, limit.Interval)
	if err != nil {
		return false, 0, err
	}
	if count <= int64(limit.MaxRequests) {
		return true, 0, nil
	}

	ttl, err := s.store.TTL(s.baseCtx, s.id)
	if err != nil {
		return false, 0, err
	}
	if ttl <= 0 {
		// The window lapsed between the two store calls.
		ttl = time.Millisecond
	}
	return false, ttl, nil
}

// armRecheckLocked schedules a wake at the next window boundary.
func (s *Scheduler) armRecheckLocked(wait time.Duration) {
	if s.recheck != nil {
		s.recheck.Stop()
	}
	s.recheck = time.AfterFunc(wait, s.wakeup)
}
