// Package observability provides an OpenTelemetry-based metrics extension
// for pacer. The MetricsExtension implements lifecycle hooks to record
// scheduler-wide counters for queued, completed, failed, and retried
// requests, rate-limit deferrals, and a histogram of queue wait times.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
