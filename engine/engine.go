package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
	"github.com/xraph/courier/backoff"
	"github.com/xraph/courier/ext"
	"github.com/xraph/courier/id"
	mw "github.com/xraph/courier/middleware"
	"github.com/xraph/courier/observability"
	"github.com/xraph/courier/persist"
	"github.com/xraph/courier/slot"
	"github.com/xraph/courier/throttle"
	"github.com/xraph/courier/worker"
)

// instrumentationName is the OTel scope used with custom providers.
const instrumentationName = "github.com/xraph/courier"

// Engine routes actions to per-key workers, persists the ones that must
// survive a restart and runs each through its retry state machine.
// Use New to create one.
type Engine struct {
	id     id.ID
	ctx    context.Context
	config courier.Config
	logger *slog.Logger

	store   persist.Store
	codec   action.Codec
	actions *action.Registry

	selector  KeySelector
	pauser    Pauser
	preparer  Preparer
	scheduler Scheduler

	workers  *worker.Registry
	custom   map[string]worker.Worker
	writer   *worker.Sequential
	storeMu  sync.Mutex
	slots    *slot.Pool[*execution]
	restore  *restorer
	throttle *throttle.Manager

	extensions   *ext.Registry
	pendingExts  []ext.Extension
	mws          []mw.Middleware
	chain        mw.Middleware
	retryBackoff backoff.Strategy

	throttleConfigs []throttle.Config
	deferRestore    bool

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	stopped atomic.Bool
}

// New creates an engine. If a store is configured, restoring the actions
// it holds starts in the background before New returns; submissions made
// meanwhile are buffered and run after the restored ones.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		id:     id.NewEngineID(),
		ctx:    context.Background(),
		config: courier.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.codec == nil {
		e.codec = action.JSONCodec{}
	}
	if e.actions == nil {
		e.actions = action.NewRegistry()
	}
	if e.selector == nil {
		e.selector = preferredKey{}
	}

	e.extensions = ext.NewRegistry(e.logger)
	e.extensions.Register(e.metricsExtension())
	for _, x := range e.pendingExts {
		e.extensions.Register(x)
	}
	e.pendingExts = nil

	e.chain = mw.Chain(e.middleware()...)
	e.throttle = throttle.NewManager(e.throttleConfigs...)

	e.workers = worker.NewRegistry(e.newWorker, e.logger)
	for key, w := range e.custom {
		e.workers.Set(key, w)
	}
	e.writer = worker.NewSequential("courier-store", e.logger)

	pauseMin, pauseMax := e.config.PauseMin, e.config.PauseMax
	e.slots = slot.New(e.config.SlotPoolSize,
		func() *execution {
			return &execution{pause: backoff.NewSequence(backoff.NewExponential(pauseMin, pauseMax))}
		},
		(*execution).reset,
	)

	e.restore = newRestorer(e.deferRestore || e.config.DeferRestore)
	if e.store == nil {
		e.restore.finish()
	} else {
		e.restore.begin()
		if err := e.writer.Execute(e.restorePersisted); err != nil {
			return nil, fmt.Errorf("courier/engine: start restore: %w", err)
		}
	}

	e.logger.Debug("engine created",
		slog.String("engine", e.id.String()),
		slog.Bool("persistent", e.store != nil),
	)
	return e, nil
}

func (e *Engine) metricsExtension() *observability.MetricsExtension {
	if e.meterProvider != nil {
		return observability.NewMetricsExtensionWithMeter(e.meterProvider.Meter(instrumentationName + "/observability"))
	}
	return observability.NewMetricsExtension()
}

// middleware builds the per-attempt stack:
// recover → tracing → metrics → logging → timeout → user middleware.
func (e *Engine) middleware() []mw.Middleware {
	tracing := mw.Tracing()
	if e.tracerProvider != nil {
		tracing = mw.TracingWithTracer(e.tracerProvider.Tracer(instrumentationName))
	}
	metrics := mw.Metrics()
	if e.meterProvider != nil {
		metrics = mw.MetricsWithMeter(e.meterProvider.Meter(instrumentationName))
	}

	all := []mw.Middleware{
		mw.Recover(e.logger),
		tracing,
		metrics,
		mw.Logging(e.logger),
		mw.Timeout(e.logger),
	}
	return append(all, e.mws...)
}

// newWorker is the registry factory: the async key gets a concurrent
// group, every other key a sequential worker.
func (e *Engine) newWorker(key string) worker.Worker {
	if key == courier.AsyncKey {
		return worker.NewGroup(key, e.config.AsyncConcurrency, e.logger)
	}
	return worker.NewSequential(key, e.logger)
}

// Register registers a typed, restorable action definition with the engine.
func Register[T any](e *Engine, def *action.Definition[T]) {
	action.RegisterDefinition(e.actions, def)
}

// ID returns the engine's identifier, as it appears in logs.
func (e *Engine) ID() id.ID { return e.id }

// Actions returns the registry used to rebuild persisted actions.
func (e *Engine) Actions() *action.Registry { return e.actions }

// Extensions returns the extension registry.
func (e *Engine) Extensions() *ext.Registry { return e.extensions }

// Throttle returns the per-key rate limiter. Limits can be changed while
// the engine runs.
func (e *Engine) Throttle() *throttle.Manager { return e.throttle }

// Config returns the engine configuration.
func (e *Engine) Config() courier.Config { return e.config }

// ActiveKeys returns a snapshot of the keys that have a worker.
func (e *Engine) ActiveKeys() []string { return e.workers.Keys() }

// Worker returns the worker bound to key, creating it if needed.
func (e *Engine) Worker(key string) worker.Worker { return e.workers.For(key) }

// AsyncWorker returns the concurrent worker group behind courier.AsyncKey.
func (e *Engine) AsyncWorker() worker.Worker { return e.workers.For(courier.AsyncKey) }

// Restored reports whether persisted actions have been loaded and new
// submissions are no longer buffered.
func (e *Engine) Restored() bool { return e.restore.restored() }

// WaitRestored blocks until Restored reports true or ctx ends.
func (e *Engine) WaitRestored(ctx context.Context) error {
	select {
	case <-e.restore.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResumePersisted enqueues the actions held back by WithDeferredRestore.
// Called before loading finishes, it takes effect as soon as loading does.
// Without deferred restore it does nothing.
func (e *Engine) ResumePersisted() {
	for _, sub := range e.restore.resume() {
		e.dispatchRestored(sub)
	}
}

// Stop refuses new submissions, waits for the restore to finish, drains
// every key worker and then the store writer. Actions that are running are
// not interrupted. If ctx has no deadline, Config.ShutdownTimeout applies.
// The store is not closed.
func (e *Engine) Stop(ctx context.Context) error {
	if !e.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && e.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := e.WaitRestored(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for restore: %w", err))
	}
	if err := e.workers.StopAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop workers: %w", err))
	}
	if err := e.writer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop store writer: %w", err))
	}

	e.extensions.EmitShutdown(ctx)
	e.logger.Debug("engine stopped", slog.String("engine", e.id.String()))
	return errors.Join(errs...)
}
