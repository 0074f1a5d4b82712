package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/pacer/request"
)

// tracerName is the instrumentation scope name for pacer tracing.
const tracerName = "github.com/xraph/pacer"

// Tracing returns middleware that wraps request execution in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a pass-through
// with zero overhead.
//
// Span attributes include: pacer.request.id, pacer.request.priority,
// pacer.request.retries. On error, the span status is set to codes.Error
// with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, req *request.Request, next Handler) (any, error) {
		ctx, span := tracer.Start(ctx, "pacer.request.execute",
			trace.WithAttributes(
				attribute.String("pacer.request.id", req.ID.String()),
				attribute.Int("pacer.request.priority", req.Priority),
				attribute.Int("pacer.request.retries", req.Retries),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		val, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return val, err
	}
}
