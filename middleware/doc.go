// Package middleware provides composable middleware for request execution.
//
// A [Middleware] is a function that wraps the scheduled work function.
// Middleware are composed into a chain using [Chain] and applied around
// each execution, including retries. They are applied right-to-left: the
// first middleware in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs request id, priority, duration, and outcome
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — caps the handler context at the request's deadline
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-request duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, req *request.Request, next middleware.Handler) (any, error) {
//	        // pre-processing
//	        val, err := next(ctx)
//	        // post-processing
//	        return val, err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., circuit breaker, request hedging).
package middleware
