// Package audithook is a pacer extension that bridges scheduler lifecycle
// events to an audit trail backend.
//
// Every request lifecycle hook emits a structured audit event through the
// [Recorder] interface. The extension assigns appropriate severity levels
// (info for normal operations, warning for retries and rate limiting,
// critical for terminal failures) and rich metadata (priority, retry count,
// elapsed time, errors).
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return auditClient.Write(ctx, evt.Action, evt.Resource, evt.ResourceID, evt.Metadata)
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionRequestFailed,
//	        audithook.ActionRateLimited,
//	    ),
//	)
package audithook
