package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/courier/action"
	"github.com/xraph/courier/ext"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/courier/observability"

// Compile-time interface checks.
var (
	_ ext.Extension        = (*MetricsExtension)(nil)
	_ ext.ActionSubmitted  = (*MetricsExtension)(nil)
	_ ext.ActionPersisted  = (*MetricsExtension)(nil)
	_ ext.ActionPaused     = (*MetricsExtension)(nil)
	_ ext.ActionRetrying   = (*MetricsExtension)(nil)
	_ ext.ActionCompleted  = (*MetricsExtension)(nil)
	_ ext.ActionFailed     = (*MetricsExtension)(nil)
	_ ext.ActionAbandoned  = (*MetricsExtension)(nil)
	_ ext.RestoreCompleted = (*MetricsExtension)(nil)
)

// MetricsExtension records engine-wide lifecycle metrics on an OTel meter.
// Register it as an engine extension to track submission rates, completion
// and failure counts, retries, pauses and restored records.
type MetricsExtension struct {
	ActionSubmitted   metric.Int64Counter
	ActionPersisted   metric.Int64Counter
	ActionCompleted   metric.Int64Counter
	ActionFailed      metric.Int64Counter
	ActionRetried     metric.Int64Counter
	ActionPaused      metric.Int64Counter
	ActionAbandoned   metric.Int64Counter
	ActionsRestored   metric.Int64Counter
	RestoreFailures   metric.Int64Counter
	CompletionLatency metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Instrument constructors return usable noop instruments on error.
	counter := func(name, desc string) metric.Int64Counter {
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	latency, _ := meter.Float64Histogram(
		"courier.action.latency",
		metric.WithDescription("Time from first attempt to completion in seconds"),
		metric.WithUnit("s"),
	)
	return &MetricsExtension{
		ActionSubmitted:   counter("courier.action.submitted", "Actions submitted to the engine"),
		ActionPersisted:   counter("courier.action.persisted", "Actions written to the store"),
		ActionCompleted:   counter("courier.action.completed", "Actions that finished successfully"),
		ActionFailed:      counter("courier.action.failed", "Actions that failed terminally"),
		ActionRetried:     counter("courier.action.retried", "Retry attempts scheduled"),
		ActionPaused:      counter("courier.action.paused", "Pause intervals waited before execution"),
		ActionAbandoned:   counter("courier.action.abandoned", "Actions dropped after their caller unsubscribed"),
		ActionsRestored:   counter("courier.restore.actions", "Persisted actions re-enqueued at startup"),
		RestoreFailures:   counter("courier.restore.failures", "Restores that failed and wiped the store"),
		CompletionLatency: latency,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func actionAttrs(a *action.Action) metric.AddOption {
	return metric.WithAttributes(
		attribute.String("action", a.Name()),
		attribute.String("key", a.Key()),
	)
}

// OnActionSubmitted implements ext.ActionSubmitted.
func (m *MetricsExtension) OnActionSubmitted(ctx context.Context, a *action.Action) error {
	m.ActionSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("action", a.Name())))
	return nil
}

// OnActionPersisted implements ext.ActionPersisted.
func (m *MetricsExtension) OnActionPersisted(ctx context.Context, a *action.Action, _ int64) error {
	m.ActionPersisted.Add(ctx, 1, metric.WithAttributes(attribute.String("action", a.Name())))
	return nil
}

// OnActionPaused implements ext.ActionPaused.
func (m *MetricsExtension) OnActionPaused(ctx context.Context, a *action.Action, _ time.Duration) error {
	m.ActionPaused.Add(ctx, 1, actionAttrs(a))
	return nil
}

// OnActionRetrying implements ext.ActionRetrying.
func (m *MetricsExtension) OnActionRetrying(ctx context.Context, a *action.Action, _ int, _ error) error {
	m.ActionRetried.Add(ctx, 1, actionAttrs(a))
	return nil
}

// OnActionCompleted implements ext.ActionCompleted.
func (m *MetricsExtension) OnActionCompleted(ctx context.Context, a *action.Action, elapsed time.Duration) error {
	m.ActionCompleted.Add(ctx, 1, actionAttrs(a))
	m.CompletionLatency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("action", a.Name()),
		attribute.String("key", a.Key()),
	))
	return nil
}

// OnActionFailed implements ext.ActionFailed.
func (m *MetricsExtension) OnActionFailed(ctx context.Context, a *action.Action, _ error) error {
	m.ActionFailed.Add(ctx, 1, actionAttrs(a))
	return nil
}

// OnActionAbandoned implements ext.ActionAbandoned.
func (m *MetricsExtension) OnActionAbandoned(ctx context.Context, a *action.Action) error {
	m.ActionAbandoned.Add(ctx, 1, actionAttrs(a))
	return nil
}

// OnRestoreCompleted implements ext.RestoreCompleted.
func (m *MetricsExtension) OnRestoreCompleted(ctx context.Context, restored int, err error) error {
	if restored > 0 {
		m.ActionsRestored.Add(ctx, int64(restored))
	}
	if err != nil {
		m.RestoreFailures.Add(ctx, 1)
	}
	return nil
}
