package queue

import (
	"container/heap"
	"time"

	"github.com/xraph/pacer/request"
)

// Queue is a priority queue of pending requests. Ordering is by priority
// descending, then enqueue time ascending (strict FIFO within a priority
// level), then insertion sequence — the sequence makes the order total even
// when two requests share a priority and a timestamp.
//
// Queue is not safe for concurrent use. The scheduler serializes all access
// under its own lock.
type Queue struct {
	h   reqHeap
	seq uint64
}

// item wraps a request with the heap bookkeeping the container needs.
type item struct {
	req *request.Request
	seq uint64
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Len returns the number of queued requests.
func (q *Queue) Len() int { return len(q.h) }

// Empty reports whether the queue holds no requests.
func (q *Queue) Empty() bool { return len(q.h) == 0 }

// Enqueue inserts a request in O(log n).
func (q *Queue) Enqueue(r *request.Request) {
	q.seq++
	heap.Push(&q.h, item{req: r, seq: q.seq})
}

// Dequeue removes and returns the highest-priority, oldest-enqueued
// request. It returns nil when the queue is empty.
func (q *Queue) Dequeue() *request.Request {
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(item).req
}

// Peek returns the request Dequeue would return without removing it,
// or nil when the queue is empty.
func (q *Queue) Peek() *request.Request {
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0].req
}

// RemoveExpired removes and returns every request whose deadline is at or
// before now. Requests without a deadline are never removed.
func (q *Queue) RemoveExpired(now time.Time) []*request.Request {
	return q.removeWhere(func(r *request.Request) bool {
		return r.Expired(now)
	})
}

// RemoveCancelled removes and returns every request whose cancellation
// signal has fired.
func (q *Queue) RemoveCancelled() []*request.Request {
	return q.removeWhere(func(r *request.Request) bool {
		return r.Cancelled()
	})
}

// Remove removes and returns the request with the given id, or nil if it
// is not queued.
func (q *Queue) Remove(rid string) *request.Request {
	removed := q.removeWhere(func(r *request.Request) bool {
		return r.ID.String() == rid
	})
	if len(removed) == 0 {
		return nil
	}
	return removed[0]
}

// Clear empties the queue and returns everything it held, in no
// particular order.
func (q *Queue) Clear() []*request.Request {
	out := make([]*request.Request, len(q.h))
	for i, it := range q.h {
		out[i] = it.req
	}
	q.h = nil
	return out
}

// Items returns a snapshot of the queued requests in no particular order.
// The queue is not mutated.
func (q *Queue) Items() []*request.Request {
	out := make([]*request.Request, len(q.h))
	for i, it := range q.h {
		out[i] = it.req
	}
	return out
}

// removeWhere filters out every request matching pred and re-establishes
// the heap invariant in one O(n) pass.
func (q *Queue) removeWhere(pred func(*request.Request) bool) []*request.Request {
	var removed []*request.Request
	kept := make(reqHeap, 0, len(q.h))
	for _, it := range q.h {
		if pred(it.req) {
			removed = append(removed, it.req)
		} else {
			kept = append(kept, it)
		}
	}
	if len(removed) > 0 {
		q.h = kept
		heap.Init(&q.h)
	}
	return removed
}

// ──────────────────────────────────────────────────
// heap.Interface
// ──────────────────────────────────────────────────

type reqHeap []item

func (h reqHeap) Len() int { return len(h) }

func (h reqHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.req.Priority != b.req.Priority {
		return a.req.Priority > b.req.Priority
	}
	if !a.req.EnqueuedAt.Equal(b.req.EnqueuedAt) {
		return a.req.EnqueuedAt.Before(b.req.EnqueuedAt)
	}
	return a.seq < b.seq
}

func (h reqHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *reqHeap) Push(x any) { *h = append(*h, x.(item)) }

func (h *reqHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = item{}
	*h = old[:n-1]
	return it
}
