package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/pacer/request"
)

// meterName is the instrumentation scope name for pacer metrics.
const meterName = "github.com/xraph/pacer"

// Metrics returns middleware that records per-request execution metrics
// using the global OTel MeterProvider. scheduler labels every data point
// so multiple scheduler instances stay distinguishable. If no
// MeterProvider is configured, noop instruments are used and this
// middleware becomes a pass-through.
//
// Instruments:
//   - pacer.request.duration (Float64Histogram): execution time in seconds,
//     with attributes: scheduler, priority, status ("ok" or "error")
//   - pacer.request.executions (Int64Counter): total executions,
//     with attributes: scheduler, priority, status ("ok" or "error")
func Metrics(scheduler string) Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(scheduler, meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(scheduler string, meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"pacer.request.duration",
		metric.WithDescription("Duration of request execution in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	executions, eErr := meter.Int64Counter(
		"pacer.request.executions",
		metric.WithDescription("Total number of request executions"),
		metric.WithUnit("{execution}"),
	)
	_ = eErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, req *request.Request, next Handler) (any, error) {
		start := time.Now()
		val, err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("scheduler", scheduler),
			attribute.Int("priority", req.Priority),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return val, err
	}
}
