package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/pacer/request"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req *request.Request, next Handler) (val any, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("request handler panicked",
					slog.String("request_id", req.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				val = nil
				retErr = fmt.Errorf("panic in request %s: %v", req.ID, r)
			}
		}()
		return next(ctx)
	}
}
