package pacer

import "time"

// Stats is a point-in-time snapshot of scheduler activity.
type Stats struct {
	// QueueSize is the number of requests waiting for admission.
	QueueSize int

	// ActiveRequests is the number of requests executing right now.
	ActiveRequests int

	// TotalProcessed counts requests that resolved successfully.
	TotalProcessed int64

	// TotalRejected counts requests that resolved with an error,
	// including admission rejections.
	TotalRejected int64

	// AvgQueueTime is the running mean wait between (re-)enqueue and
	// dispatch, over successfully processed requests.
	AvgQueueTime time.Duration

	// AvgExecutionTime is the running mean work-function duration over
	// successfully processed requests.
	AvgExecutionTime time.Duration
}

// counters accumulates scheduler statistics. Guarded by the scheduler
// mutex; the means are updated incrementally, no history is kept.
type counters struct {
	processed int64
	rejected  int64
	avgQueue  time.Duration
	avgExec   time.Duration
}

// observe folds one successful completion into the running means.
// Call after incrementing processed.
func (c *counters) observe(queueTime, execTime time.Duration) {
	n := time.Duration(c.processed)
	c.avgQueue += (queueTime - c.avgQueue) / n
	c.avgExec += (execTime - c.avgExec) / n
}
