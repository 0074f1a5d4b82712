package pacer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/pacer/backoff"
	"github.com/xraph/pacer/ext"
	"github.com/xraph/pacer/id"
	"github.com/xraph/pacer/middleware"
	"github.com/xraph/pacer/queue"
	"github.com/xraph/pacer/quota"
	"github.com/xraph/pacer/request"
	"github.com/xraph/pacer/store"
	"github.com/xraph/pacer/store/memory"
)

// Task is a caller-supplied unit of work, typically wrapping one
// outbound call. The scheduler invokes it opaquely and inspects only the
// returned error's retryability signals.
type Task func(ctx context.Context) (any, error)

// Result is what a successful request resolves with.
type Result struct {
	// Value is whatever the task returned.
	Value any

	// QueueTime is how long the request waited for its final dispatch.
	// Retries reset the measurement; earlier waits are not included.
	QueueTime time.Duration

	// ExecutionTime is the duration of the successful run.
	ExecutionTime time.Duration

	// Retries is how many times the task was re-run before succeeding.
	Retries int
}

// outcome is the terminal resolution of a request.
type outcome struct {
	res *Result
	err error
}

// pending binds a request to its task and the channel its caller waits
// on. The scheduler owns it from Schedule to resolution.
type pending struct {
	req      *request.Request
	task     Task
	done     chan outcome
	resolved bool
}

// resolve delivers the outcome exactly once. Must be called with the
// scheduler lock held; the buffered channel keeps the send non-blocking
// even after the caller stopped listening.
func (p *pending) resolve(out outcome) {
	if p.resolved {
		return
	}
	p.resolved = true
	p.done <- out
}

// Scheduler throttles and orders outbound work. It owns a priority queue
// of pending requests, a rate-limit gate, a bounded-concurrency executor,
// and a retry engine. Create one with New; it runs until Destroy.
type Scheduler struct {
	cfg    Config
	id     string
	logger *slog.Logger

	store store.Store
	quota quota.Source
	bo    backoff.Strategy
	exts  *ext.Registry
	mw    middleware.Middleware

	// Collected by options, folded into exts and mw at the end of New.
	userMW  []middleware.Middleware
	optExts []ext.Extension

	// baseCtx is the context tasks run under. Only Destroy cancels it;
	// caller cancellation never interrupts in-flight work.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	// mu guards everything below.
	mu           sync.Mutex
	queue        *queue.Queue
	items        map[string]*pending
	retryTimers  map[string]*time.Timer
	recheck      *time.Timer
	active       int
	destroyed    bool
	rateDeferred bool
	stats        counters

	wake     chan struct{}
	loopDone chan struct{}
	inflight sync.WaitGroup
}

// New creates a Scheduler and starts its admission loop. Invalid or zero
// Config fields are replaced with defaults.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	cfg = cfg.withDefaults()

	baseCtx, baseCancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:         cfg,
		id:          cfg.ID,
		logger:      slog.Default(),
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		queue:       queue.New(),
		items:       make(map[string]*pending),
		retryTimers: make(map[string]*time.Timer),
		wake:        make(chan struct{}, 1),
		loopDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			baseCancel()
			return nil, err
		}
	}

	if s.id == "" {
		s.id = id.NewSchedulerID().String()
	}
	if s.store == nil {
		s.store = memory.New()
	}
	if s.bo == nil {
		s.bo = backoff.NewExponentialJitter(cfg.Retry.BaseDelay, cfg.Retry.MaxDelay, cfg.Retry.JitterFactor)
	}

	s.exts = ext.NewRegistry(s.logger)
	for _, e := range s.optExts {
		s.exts.Register(e)
	}
	s.optExts = nil

	mws := make([]middleware.Middleware, 0, len(s.userMW)+2)
	mws = append(mws, middleware.Recover(s.logger), middleware.Logging(s.logger))
	mws = append(mws, s.userMW...)
	s.mw = middleware.Chain(mws...)
	s.userMW = nil

	go s.run()

	s.logger.Info("scheduler started",
		slog.String("scheduler_id", s.id),
		slog.Int("max_requests", cfg.Limit.MaxRequests),
		slog.Duration("interval", cfg.Limit.Interval),
		slog.Int("concurrency", cfg.Concurrency),
	)
	return s, nil
}

// ID returns the scheduler identifier, which doubles as the rate-limit
// counter key.
func (s *Scheduler) ID() string { return s.id }

// Schedule submits task and blocks until it resolves or ctx fires.
// It fails immediately with ErrSchedulerDestroyed after Destroy and with
// ErrQueueFull when the queue is at MaxQueueSize. When ctx fires first,
// Schedule returns right away with ErrCancelled (or ErrDeadlineExceeded
// for a deadline); the abandoned request is swept at the next admission
// tick, and an already-running execution finishes in the background with
// its result discarded.
func (s *Scheduler) Schedule(ctx context.Context, task Task, opts ...request.Option) (*Result, error) {
	if task == nil {
		return nil, ErrNilTask
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := request.New(id.NewRequestID(), ctx, opts...)
	p := &pending{req: req, task: task, done: make(chan outcome, 1)}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil, ErrSchedulerDestroyed
	}
	if s.cfg.MaxQueueSize > 0 && s.queue.Len() >= s.cfg.MaxQueueSize {
		s.stats.rejected++
		s.mu.Unlock()
		return nil, ErrQueueFull
	}
	s.items[req.ID.String()] = p
	s.queue.Enqueue(req)
	s.mu.Unlock()

	s.logger.Debug("request queued",
		slog.String("request_id", req.ID.String()),
		slog.Int("priority", req.Priority),
	)
	s.exts.EmitRequestQueued(context.Background(), req)
	s.wakeup()

	if !req.Deadline.IsZero() {
		// Resolve the request at its deadline even if the admission loop
		// is idle. A deadline already in the past fires immediately.
		rid := req.ID.String()
		t := time.AfterFunc(time.Until(req.Deadline), func() { s.expire(rid) })
		defer t.Stop()
	}

	select {
	case out := <-p.done:
		return out.res, out.err
	case <-ctx.Done():
		// Prefer an outcome that landed in the same instant.
		select {
		case out := <-p.done:
			return out.res, out.err
		default:
		}
		s.wakeup()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrDeadlineExceeded
		}
		return nil, ErrCancelled
	}
}

// Execute schedules a typed task. It is Schedule with the type assertion
// on Result.Value done for the caller.
func Execute[T any](ctx context.Context, s *Scheduler, task func(ctx context.Context) (T, error), opts ...request.Option) (T, error) {
	var zero T
	if task == nil {
		return zero, ErrNilTask
	}

	res, err := s.Schedule(ctx, func(ctx context.Context) (any, error) {
		return task(ctx)
	}, opts...)
	if err != nil {
		return zero, err
	}

	val, ok := res.Value.(T)
	if !ok && res.Value != nil {
		return zero, fmt.Errorf("pacer: unexpected result type %T", res.Value)
	}
	return val, nil
}

// RegisterExtension adds a lifecycle extension. Safe to call while the
// scheduler is running.
func (s *Scheduler) RegisterExtension(e ext.Extension) {
	s.exts.Register(e)
}

// DeregisterExtension removes the extension with the given name.
// Unknown names are ignored.
func (s *Scheduler) DeregisterExtension(name string) {
	s.exts.Deregister(name)
}

// Stats returns a point-in-time snapshot of scheduler activity.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		QueueSize:        s.queue.Len(),
		ActiveRequests:   s.active,
		TotalProcessed:   s.stats.processed,
		TotalRejected:    s.stats.rejected,
		AvgQueueTime:     s.stats.avgQueue,
		AvgExecutionTime: s.stats.avgExec,
	}
}

// Destroy permanently shuts the scheduler down. Queued and retry-waiting
// requests are rejected with ErrSchedulerDestroyed; in-flight executions
// get a cancelled context and are waited for until ctx fires. Destroy is
// idempotent, and every Schedule call after it fails.
func (s *Scheduler) Destroy(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true

	if s.recheck != nil {
		s.recheck.Stop()
		s.recheck = nil
	}
	for rid, t := range s.retryTimers {
		t.Stop()
		delete(s.retryTimers, rid)
	}

	s.queue.Clear()
	for rid, p := range s.items {
		if p.req.State == request.StateExecuting {
			continue // waited for below
		}
		delete(s.items, rid)
		p.req.State = request.StateFailed
		s.stats.rejected++
		p.resolve(outcome{err: ErrSchedulerDestroyed})
	}
	s.mu.Unlock()

	s.logger.Info("scheduler destroying", slog.String("scheduler_id", s.id))

	// Stop the admission loop and signal in-flight tasks.
	s.baseCancel()
	<-s.loopDone

	// Wait for in-flight executions, bounded by ctx.
	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
		s.logger.Warn("destroy timed out waiting for in-flight requests",
			slog.String("scheduler_id", s.id),
		)
	}

	s.exts.EmitShutdown(context.Background())

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("pacer: close store: %w", err)
	}
	return nil
}
