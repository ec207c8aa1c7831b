package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
	"github.com/xraph/courier/backoff"
	"github.com/xraph/courier/ext"
	mw "github.com/xraph/courier/middleware"
	"github.com/xraph/courier/persist"
	"github.com/xraph/courier/throttle"
	"github.com/xraph/courier/worker"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine, its workers and the
// default middleware.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConfig replaces the engine configuration. See courier.LoadConfig.
func WithConfig(cfg courier.Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithStore enables persistent actions. Records left in the store by a
// previous run are restored when the engine is created.
func WithStore(s persist.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithRegistry sets the action registry used to rebuild persisted actions.
func WithRegistry(r *action.Registry) Option {
	return func(e *Engine) { e.actions = r }
}

// WithCodec sets the snapshot encoding written to the store. The default
// is action.JSONCodec.
func WithCodec(c action.Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithKeySelector sets the policy that routes submissions without an
// explicit key.
func WithKeySelector(s KeySelector) Option {
	return func(e *Engine) { e.selector = s }
}

// WithPauser installs the pause gate.
func WithPauser(p Pauser) Option {
	return func(e *Engine) { e.pauser = p }
}

// WithPreparer installs the dependency injection hook.
func WithPreparer(p Preparer) Option {
	return func(e *Engine) { e.preparer = p }
}

// WithScheduler sets where results are delivered unless a submission
// overrides it with DeliverOn.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithWorker binds a caller-supplied worker to key. A worker bound to an
// ordered key must run tasks one at a time, in order.
func WithWorker(key string, w worker.Worker) Option {
	return func(e *Engine) {
		if e.custom == nil {
			e.custom = make(map[string]worker.Worker)
		}
		e.custom[key] = w
	}
}

// WithExtension registers an extension with the engine.
func WithExtension(x ext.Extension) Option {
	return func(e *Engine) { e.pendingExts = append(e.pendingExts, x) }
}

// WithMiddleware adds middleware to the engine's chain, inside the
// default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(e *Engine) { e.mws = append(e.mws, m) }
}

// WithRetryBackoff sleeps for s.Delay(n) before retry n. Without it
// retries start immediately.
func WithRetryBackoff(s backoff.Strategy) Option {
	return func(e *Engine) { e.retryBackoff = s }
}

// WithKeyRateLimit limits how fast actions start on the given keys.
func WithKeyRateLimit(configs ...throttle.Config) Option {
	return func(e *Engine) { e.throttleConfigs = append(e.throttleConfigs, configs...) }
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// WithDeferredRestore loads persisted actions at construction but holds
// them until ResumePersisted is called. New submissions run meanwhile.
func WithDeferredRestore() Option {
	return func(e *Engine) { e.deferRestore = true }
}

// SubmitOption configures a single submission.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	scheduler Scheduler
}

// DeliverOn overrides the engine's completion scheduler for one submission.
func DeliverOn(s Scheduler) SubmitOption {
	return func(o *submitOptions) { o.scheduler = s }
}
