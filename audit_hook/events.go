package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionRequestQueued    = "request.queued"
	ActionRequestStarted   = "request.started"
	ActionRequestCompleted = "request.completed"
	ActionRequestFailed    = "request.failed"
	ActionRequestRetrying  = "request.retrying"
	ActionRateLimited      = "scheduler.rate_limited"
	ActionShutdown         = "scheduler.shutdown"
)

// Audit event categories group related actions.
const (
	CategoryRequest   = "pacer.request"
	CategoryScheduler = "pacer.scheduler"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceRequest   = "request"
	ResourceScheduler = "scheduler"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionRequestQueued,
		ActionRequestStarted,
		ActionRequestCompleted,
		ActionRequestFailed,
		ActionRequestRetrying,
		ActionRateLimited,
		ActionShutdown,
	}
}
