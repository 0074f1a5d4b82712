// Package pacer provides a client-side request scheduler for rate-limited
// APIs. It queues work by priority, admits it under a static fixed-window
// limit or a dynamically discovered quota, bounds concurrency, and retries
// transient failures with jittered exponential backoff.
//
// Pacer is designed as a library, not a service. Import it, configure a
// limit, and schedule ordinary Go functions.
//
// # Quick Start
//
//	s, err := pacer.New(pacer.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer s.Destroy(context.Background())
//
//	res, err := s.Schedule(ctx, func(ctx context.Context) (any, error) {
//	    return client.Do(req)
//	}, request.WithPriority(5))
//
// # Architecture
//
// A Scheduler owns a priority queue and a rate-limit counter store. One
// admission goroutine sweeps expired and cancelled work, consults the rate
// gate, and dispatches eligible requests onto their own goroutines under a
// concurrency cap. Counter stores are pluggable: the in-process default can
// be swapped for Redis, Postgres, MongoDB, or SQLite so schedulers in
// separate processes share a window.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package pacer
