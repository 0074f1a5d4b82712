package pacer

import (
	"context"

	"github.com/xraph/pacer/request"
)

// RequestFromContext returns the request being executed under ctx.
// Tasks and middleware use it to read the request's id, priority, and
// metadata. The scheduler injects the request before running the
// middleware chain.
func RequestFromContext(ctx context.Context) (*request.Request, bool) {
	return request.FromContext(ctx)
}
