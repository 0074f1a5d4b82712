package request

import "context"

// ctxKey is the private context key for the request carried during
// execution.
type ctxKey struct{}

// NewContext returns a copy of ctx carrying req. The scheduler attaches
// the request before invoking the work function so middleware and
// handlers can read its identity, priority, and metadata.
func NewContext(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, ctxKey{}, req)
}

// FromContext returns the request carried by ctx, if any.
func FromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(ctxKey{}).(*Request)
	return req, ok
}
