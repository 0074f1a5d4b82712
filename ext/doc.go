// Package ext defines the extension system for pacer.
//
// Extensions are notified of request lifecycle events and can react to
// them — recording metrics, writing audit logs, feeding dashboards, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnRequestCompleted(ctx context.Context, req *request.Request, elapsed time.Duration) error {
//	    log.Printf("request %s completed in %s", req.ID, elapsed)
//	    return nil
//	}
//
// # Request Lifecycle Hooks
//
//   - [RequestQueued] — request was accepted into the queue
//   - [RequestStarted] — the work function began executing
//   - [RequestCompleted] — request finished successfully
//   - [RequestFailed] — request failed with no retries remaining
//   - [RequestRetrying] — request failed but will be retried
//
// # Other Hooks
//
//   - [RateLimited] — dispatch was deferred by the rate-limit window
//   - [Shutdown] — the scheduler is being destroyed
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface, in registration order. A
// hook that returns an error or panics is logged and skipped; it never
// affects other extensions or the scheduler itself. Extensions can be
// added and removed at runtime with [Registry.Register] and
// [Registry.Deregister].
package ext
