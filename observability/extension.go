package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/pacer/ext"
	"github.com/xraph/pacer/request"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/pacer/observability"

// Compile-time interface checks.
var (
	_ ext.Extension        = (*MetricsExtension)(nil)
	_ ext.RequestQueued    = (*MetricsExtension)(nil)
	_ ext.RequestStarted   = (*MetricsExtension)(nil)
	_ ext.RequestCompleted = (*MetricsExtension)(nil)
	_ ext.RequestFailed    = (*MetricsExtension)(nil)
	_ ext.RequestRetrying  = (*MetricsExtension)(nil)
	_ ext.RateLimited      = (*MetricsExtension)(nil)
)

// MetricsExtension records scheduler-wide lifecycle metrics via OpenTelemetry.
// Register it as a pacer extension to automatically track queue rates,
// completion counts, failure rates, retry counts, rate-limit deferrals,
// and how long requests wait for admission.
//
// Instruments:
//   - pacer.requests.queued (Int64Counter)
//   - pacer.requests.completed (Int64Counter)
//   - pacer.requests.failed (Int64Counter)
//   - pacer.requests.retried (Int64Counter)
//   - pacer.rate_limited (Int64Counter), attribute: scheduler
//   - pacer.request.queue_wait (Float64Histogram): seconds from enqueue
//     to execution start
type MetricsExtension struct {
	queued      metric.Int64Counter
	completed   metric.Int64Counter
	failed      metric.Int64Counter
	retried     metric.Int64Counter
	rateLimited metric.Int64Counter
	queueWait   metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. Without a configured provider the instruments are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. This variant allows injecting a specific MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// On instrument-creation errors the OTel API returns noops, so the
	// extension degrades gracefully.
	queued, _ := meter.Int64Counter( //nolint:errcheck // noop fallback
		"pacer.requests.queued",
		metric.WithDescription("Total number of requests accepted into the queue"),
		metric.WithUnit("{request}"),
	)
	completed, _ := meter.Int64Counter( //nolint:errcheck // noop fallback
		"pacer.requests.completed",
		metric.WithDescription("Total number of requests completed successfully"),
		metric.WithUnit("{request}"),
	)
	failed, _ := meter.Int64Counter( //nolint:errcheck // noop fallback
		"pacer.requests.failed",
		metric.WithDescription("Total number of requests failed terminally"),
		metric.WithUnit("{request}"),
	)
	retried, _ := meter.Int64Counter( //nolint:errcheck // noop fallback
		"pacer.requests.retried",
		metric.WithDescription("Total number of retry attempts scheduled"),
		metric.WithUnit("{retry}"),
	)
	rateLimited, _ := meter.Int64Counter( //nolint:errcheck // noop fallback
		"pacer.rate_limited",
		metric.WithDescription("Total number of rate-limit deferrals"),
		metric.WithUnit("{deferral}"),
	)
	queueWait, _ := meter.Float64Histogram( //nolint:errcheck // noop fallback
		"pacer.request.queue_wait",
		metric.WithDescription("Seconds a request waited between enqueue and execution start"),
		metric.WithUnit("s"),
	)

	return &MetricsExtension{
		queued:      queued,
		completed:   completed,
		failed:      failed,
		retried:     retried,
		rateLimited: rateLimited,
		queueWait:   queueWait,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Request lifecycle hooks ─────────────────────────

// OnRequestQueued implements ext.RequestQueued.
func (m *MetricsExtension) OnRequestQueued(ctx context.Context, _ *request.Request) error {
	m.queued.Add(ctx, 1)
	return nil
}

// OnRequestStarted implements ext.RequestStarted. It records how long the
// request waited in the queue before this execution.
func (m *MetricsExtension) OnRequestStarted(ctx context.Context, req *request.Request) error {
	m.queueWait.Record(ctx, time.Since(req.QueuedAt).Seconds())
	return nil
}

// OnRequestCompleted implements ext.RequestCompleted.
func (m *MetricsExtension) OnRequestCompleted(ctx context.Context, _ *request.Request, _ time.Duration) error {
	m.completed.Add(ctx, 1)
	return nil
}

// OnRequestFailed implements ext.RequestFailed.
func (m *MetricsExtension) OnRequestFailed(ctx context.Context, _ *request.Request, _ error) error {
	m.failed.Add(ctx, 1)
	return nil
}

// OnRequestRetrying implements ext.RequestRetrying.
func (m *MetricsExtension) OnRequestRetrying(ctx context.Context, _ *request.Request, _ int, _ time.Duration) error {
	m.retried.Add(ctx, 1)
	return nil
}

// ── Other lifecycle hooks ───────────────────────────

// OnRateLimited implements ext.RateLimited.
func (m *MetricsExtension) OnRateLimited(ctx context.Context, schedulerID string, _ time.Duration) error {
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scheduler", schedulerID),
	))
	return nil
}
