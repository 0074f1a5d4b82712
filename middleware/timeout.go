package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/pacer/request"
)

// Timeout returns middleware that enforces the request's deadline on the
// handler context. If the request carries a non-zero Deadline, a
// context.WithDeadline wraps the handler call; when the deadline is
// exceeded the context is cancelled and the handler should return
// context.DeadlineExceeded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req *request.Request, next Handler) (any, error) {
		if !req.Deadline.IsZero() {
			logger.Debug("request deadline set",
				slog.String("request_id", req.ID.String()),
				slog.Time("deadline", req.Deadline),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithDeadline(ctx, req.Deadline)
			defer cancel()
		}
		return next(ctx)
	}
}
