package pacer

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/pacer/request"
)

// execute runs one request through the middleware chain and its task,
// then routes the outcome to completion or retry handling. Runs on its
// own goroutine, one per in-flight request.
func (s *Scheduler) execute(p *pending) {
	defer s.inflight.Done()

	req := p.req
	start := time.Now()
	queueTime := start.Sub(req.QueuedAt)

	ctx := request.NewContext(s.baseCtx, req)
	val, err := s.mw(ctx, req, func(ctx context.Context) (any, error) {
		return p.task(ctx)
	})
	execTime := time.Since(start)

	if err != nil {
		s.handleFailure(p, err)
	} else {
		s.handleSuccess(p, val, queueTime, execTime)
	}
	s.wakeup()
}

// handleSuccess resolves the caller with the result and folds the
// timings into the running averages.
func (s *Scheduler) handleSuccess(p *pending, val any, queueTime, execTime time.Duration) {
	req := p.req

	s.mu.Lock()
	s.active--
	req.State = request.StateCompleted
	delete(s.items, req.ID.String())
	s.stats.processed++
	s.stats.observe(queueTime, execTime)
	p.resolve(outcome{res: &Result{
		Value:         val,
		QueueTime:     queueTime,
		ExecutionTime: execTime,
		Retries:       req.Retries,
	}})
	emit := !s.destroyed
	s.mu.Unlock()

	if emit {
		s.exts.EmitRequestCompleted(context.Background(), req, execTime)
	}
}

// handleFailure either schedules a retry or resolves the caller with the
// task's own error. Retry eligibility needs all three: the error
// classifies as retryable, attempts remain, and the scheduler is alive.
func (s *Scheduler) handleFailure(p *pending, taskErr error) {
	req := p.req

	s.mu.Lock()
	s.active--

	canRetry := !s.destroyed &&
		req.Retries < s.cfg.Retry.MaxRetries &&
		s.cfg.Retry.Retryable(taskErr)
	if !canRetry {
		req.State = request.StateFailed
		delete(s.items, req.ID.String())
		s.stats.rejected++
		p.resolve(outcome{err: taskErr})
		emit := !s.destroyed
		s.mu.Unlock()

		s.logger.Debug("request failed",
			slog.String("request_id", req.ID.String()),
			slog.Int("retries", req.Retries),
			slog.String("error", taskErr.Error()),
		)
		if emit {
			s.exts.EmitRequestFailed(context.Background(), req, taskErr)
		}
		return
	}

	attempt := req.Retries + 1
	delay := s.bo.Delay(req.Retries)
	req.State = request.StateRetrying
	rid := req.ID.String()
	s.retryTimers[rid] = time.AfterFunc(delay, func() { s.requeue(rid) })
	s.mu.Unlock()

	s.logger.Info("request scheduled for retry",
		slog.String("request_id", rid),
		slog.Int("attempt", attempt),
		slog.Int("max_retries", s.cfg.Retry.MaxRetries),
		slog.Duration("delay", delay),
	)
	s.exts.EmitRequestRetrying(context.Background(), req, attempt, delay)
}

// requeue returns a retry-waiting request to the queue once its backoff
// delay elapses. Deadline and cancellation are rechecked here: a request
// abandoned during backoff resolves now instead of rejoining the queue.
// Retry re-enqueues are exempt from MaxQueueSize; the slot was already
// granted at admission.
func (s *Scheduler) requeue(rid string) {
	s.mu.Lock()
	delete(s.retryTimers, rid)
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	p, ok := s.items[rid]
	if !ok {
		s.mu.Unlock()
		return
	}
	req := p.req

	now := time.Now()
	if req.Expired(now) {
		s.rejectLocked(req, ErrDeadlineExceeded)
		s.mu.Unlock()
		s.exts.EmitRequestFailed(context.Background(), req, ErrDeadlineExceeded)
		return
	}
	if req.Cancelled() {
		s.rejectLocked(req, ErrCancelled)
		s.mu.Unlock()
		s.exts.EmitRequestFailed(context.Background(), req, ErrCancelled)
		return
	}

	req.Retries++
	req.State = request.StateQueued
	req.QueuedAt = now
	s.queue.Enqueue(req)
	s.mu.Unlock()

	s.wakeup()
}
