package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/courier/action"
	"github.com/xraph/courier/ext"
)

// Outcome label values.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeAbandoned = "abandoned"
)

var (
	_ ext.Extension        = (*PrometheusExtension)(nil)
	_ ext.ActionSubmitted  = (*PrometheusExtension)(nil)
	_ ext.ActionStarted    = (*PrometheusExtension)(nil)
	_ ext.ActionRetrying   = (*PrometheusExtension)(nil)
	_ ext.ActionCompleted  = (*PrometheusExtension)(nil)
	_ ext.ActionFailed     = (*PrometheusExtension)(nil)
	_ ext.ActionAbandoned  = (*PrometheusExtension)(nil)
	_ ext.RestoreCompleted = (*PrometheusExtension)(nil)
)

// PrometheusExtension exposes lifecycle events as Prometheus collectors.
//
//   - courier_actions_submitted_total{action}
//   - courier_actions_finished_total{action,outcome}
//   - courier_action_retries_total{action}
//   - courier_action_duration_seconds{action}
//   - courier_actions_in_flight
//   - courier_restored_actions_total
type PrometheusExtension struct {
	submitted *prometheus.CounterVec
	finished  *prometheus.CounterVec
	retries   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	restored  prometheus.Counter
}

// NewPrometheusExtension creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer. Collectors that are already
// registered are reused, so two engines can share one registry.
func NewPrometheusExtension(reg prometheus.Registerer) (*PrometheusExtension, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusExtension{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_actions_submitted_total",
			Help: "Total number of actions submitted.",
		}, []string{"action"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_actions_finished_total",
			Help: "Total number of actions that reached a terminal outcome.",
		}, []string{"action", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_action_retries_total",
			Help: "Total number of retry attempts.",
		}, []string{"action"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_action_duration_seconds",
			Help:    "Time from first attempt to successful completion, in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courier_actions_in_flight",
			Help: "Number of actions currently executing.",
		}),
		restored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courier_restored_actions_total",
			Help: "Total number of persisted actions re-enqueued at startup.",
		}),
	}

	var err error
	if p.submitted, err = register(reg, p.submitted); err != nil {
		return nil, err
	}
	if p.finished, err = register(reg, p.finished); err != nil {
		return nil, err
	}
	if p.retries, err = register(reg, p.retries); err != nil {
		return nil, err
	}
	if p.duration, err = register(reg, p.duration); err != nil {
		return nil, err
	}
	if p.inFlight, err = register(reg, p.inFlight); err != nil {
		return nil, err
	}
	if p.restored, err = register(reg, p.restored); err != nil {
		return nil, err
	}
	return p, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Name implements ext.Extension.
func (p *PrometheusExtension) Name() string { return "observability-prometheus" }

// OnActionSubmitted implements ext.ActionSubmitted.
func (p *PrometheusExtension) OnActionSubmitted(_ context.Context, a *action.Action) error {
	p.submitted.WithLabelValues(a.Name()).Inc()
	return nil
}

// OnActionStarted implements ext.ActionStarted.
func (p *PrometheusExtension) OnActionStarted(_ context.Context, _ *action.Action) error {
	p.inFlight.Inc()
	return nil
}

// OnActionRetrying implements ext.ActionRetrying.
func (p *PrometheusExtension) OnActionRetrying(_ context.Context, a *action.Action, _ int, _ error) error {
	p.retries.WithLabelValues(a.Name()).Inc()
	return nil
}

// OnActionCompleted implements ext.ActionCompleted.
func (p *PrometheusExtension) OnActionCompleted(_ context.Context, a *action.Action, elapsed time.Duration) error {
	p.inFlight.Dec()
	p.finished.WithLabelValues(a.Name(), outcomeCompleted).Inc()
	p.duration.WithLabelValues(a.Name()).Observe(elapsed.Seconds())
	return nil
}

// OnActionFailed implements ext.ActionFailed.
func (p *PrometheusExtension) OnActionFailed(_ context.Context, a *action.Action, _ error) error {
	p.inFlight.Dec()
	p.finished.WithLabelValues(a.Name(), outcomeFailed).Inc()
	return nil
}

// OnActionAbandoned implements ext.ActionAbandoned.
func (p *PrometheusExtension) OnActionAbandoned(_ context.Context, a *action.Action) error {
	p.finished.WithLabelValues(a.Name(), outcomeAbandoned).Inc()
	return nil
}

// OnRestoreCompleted implements ext.RestoreCompleted.
func (p *PrometheusExtension) OnRestoreCompleted(_ context.Context, restored int, _ error) error {
	p.restored.Add(float64(restored))
	return nil
}
