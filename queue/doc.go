// Package queue provides the priority queue of pending requests.
//
// Ordering is priority descending with strict FIFO among equal priorities:
// the request enqueued earliest wins the tie, down to the insertion sequence
// when timestamps collide. Negative priorities are valid and sort below the
// default of zero.
//
// Beyond Enqueue/Dequeue/Peek, the queue supports the bulk removals the
// scheduler runs at every admission tick:
//
//   - [Queue.RemoveExpired] drops requests whose deadline has passed
//   - [Queue.RemoveCancelled] drops requests whose caller gave up
//   - [Queue.Clear] drains everything at scheduler destruction
//
// Bulk removals filter in one pass and re-heapify, so the heap invariant
// holds regardless of how many items leave at once.
//
// The queue performs no locking; the scheduler owns it and serializes
// access under its own mutex.
package queue
