// Package observability provides metrics extensions for courier. The
// [MetricsExtension] records engine-wide OpenTelemetry counters from the
// lifecycle hooks: submissions, persisted records, completions, failures,
// retries, pauses, abandoned actions and restores. The [PrometheusExtension]
// exposes the same events as Prometheus collectors labelled by action name.
//
// For per-attempt tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
