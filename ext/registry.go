package ext

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/courier/action"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type actionSubmittedEntry struct {
	name string
	hook ActionSubmitted
}
type actionPersistedEntry struct {
	name string
	hook ActionPersisted
}
type actionStartedEntry struct {
	name string
	hook ActionStarted
}
type actionPausedEntry struct {
	name string
	hook ActionPaused
}
type actionRetryingEntry struct {
	name string
	hook ActionRetrying
}
type actionCompletedEntry struct {
	name string
	hook ActionCompleted
}
type actionFailedEntry struct {
	name string
	hook ActionFailed
}
type actionAbandonedEntry struct {
	name string
	hook ActionAbandoned
}
type restoreCompletedEntry struct {
	name string
	hook RestoreCompleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}
// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
// Register all extensions before the engine starts submitting work.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	actionSubmitted  []actionSubmittedEntry
	actionPersisted  []actionPersistedEntry
	actionStarted    []actionStartedEntry
	actionPaused     []actionPausedEntry
	actionRetrying   []actionRetryingEntry
	actionCompleted  []actionCompletedEntry
	actionFailed     []actionFailedEntry
	actionAbandoned  []actionAbandonedEntry
	restoreCompleted []restoreCompletedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(ActionSubmitted); ok {
		r.actionSubmitted = append(r.actionSubmitted, actionSubmittedEntry{name, h})
	}
	if h, ok := e.(ActionPersisted); ok {
		r.actionPersisted = append(r.actionPersisted, actionPersistedEntry{name, h})
	}
	if h, ok := e.(ActionStarted); ok {
		r.actionStarted = append(r.actionStarted, actionStartedEntry{name, h})
	}
	if h, ok := e.(ActionPaused); ok {
		r.actionPaused = append(r.actionPaused, actionPausedEntry{name, h})
	}
	if h, ok := e.(ActionRetrying); ok {
		r.actionRetrying = append(r.actionRetrying, actionRetryingEntry{name, h})
	}
	if h, ok := e.(ActionCompleted); ok {
		r.actionCompleted = append(r.actionCompleted, actionCompletedEntry{name, h})
	}
	if h, ok := e.(ActionFailed); ok {
		r.actionFailed = append(r.actionFailed, actionFailedEntry{name, h})
	}
	if h, ok := e.(ActionAbandoned); ok {
		r.actionAbandoned = append(r.actionAbandoned, actionAbandonedEntry{name, h})
	}
	if h, ok := e.(RestoreCompleted); ok {
		r.restoreCompleted = append(r.restoreCompleted, restoreCompletedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Action event emitters
// ──────────────────────────────────────────────────

// EmitActionSubmitted notifies all extensions that implement ActionSubmitted.
func (r *Registry) EmitActionSubmitted(ctx context.Context, a *action.Action) {
	for _, e := range r.actionSubmitted {
		r.call("OnActionSubmitted", e.name, func() error { return e.hook.OnActionSubmitted(ctx, a) })
	}
}

// EmitActionPersisted notifies all extensions that implement ActionPersisted.
func (r *Registry) EmitActionPersisted(ctx context.Context, a *action.Action, recordID int64) {
	for _, e := range r.actionPersisted {
		r.call("OnActionPersisted", e.name, func() error { return e.hook.OnActionPersisted(ctx, a, recordID) })
	}
}

// EmitActionStarted notifies all extensions that implement ActionStarted.
func (r *Registry) EmitActionStarted(ctx context.Context, a *action.Action) {
	for _, e := range r.actionStarted {
		r.call("OnActionStarted", e.name, func() error { return e.hook.OnActionStarted(ctx, a) })
	}
}

// EmitActionPaused notifies all extensions that implement ActionPaused.
func (r *Registry) EmitActionPaused(ctx context.Context, a *action.Action, delay time.Duration) {
	for _, e := range r.actionPaused {
		r.call("OnActionPaused", e.name, func() error { return e.hook.OnActionPaused(ctx, a, delay) })
	}
}

// EmitActionRetrying notifies all extensions that implement ActionRetrying.
func (r *Registry) EmitActionRetrying(ctx context.Context, a *action.Action, attempt int, actionErr error) {
	for _, e := range r.actionRetrying {
		r.call("OnActionRetrying", e.name, func() error { return e.hook.OnActionRetrying(ctx, a, attempt, actionErr) })
	}
}

// EmitActionCompleted notifies all extensions that implement ActionCompleted.
func (r *Registry) EmitActionCompleted(ctx context.Context, a *action.Action, elapsed time.Duration) {
	for _, e := range r.actionCompleted {
		r.call("OnActionCompleted", e.name, func() error { return e.hook.OnActionCompleted(ctx, a, elapsed) })
	}
}

// EmitActionFailed notifies all extensions that implement ActionFailed.
func (r *Registry) EmitActionFailed(ctx context.Context, a *action.Action, actionErr error) {
	for _, e := range r.actionFailed {
		r.call("OnActionFailed", e.name, func() error { return e.hook.OnActionFailed(ctx, a, actionErr) })
	}
}

// EmitActionAbandoned notifies all extensions that implement ActionAbandoned.
func (r *Registry) EmitActionAbandoned(ctx context.Context, a *action.Action) {
	for _, e := range r.actionAbandoned {
		r.call("OnActionAbandoned", e.name, func() error { return e.hook.OnActionAbandoned(ctx, a) })
	}
}

// ──────────────────────────────────────────────────
// Engine event emitters
// ──────────────────────────────────────────────────

// EmitRestoreCompleted notifies all extensions that implement RestoreCompleted.
func (r *Registry) EmitRestoreCompleted(ctx context.Context, restored int, restoreErr error) {
	for _, e := range r.restoreCompleted {
		r.call("OnRestoreCompleted", e.name, func() error { return e.hook.OnRestoreCompleted(ctx, restored, restoreErr) })
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		r.call("OnShutdown", e.name, func() error { return e.hook.OnShutdown(ctx) })
	}
}

// call runs one hook. Errors and panics are logged and never reach the
// engine.
func (r *Registry) call(hook, extName string, fn func() error) {
	defer func() {
		if v := recover(); v != nil {
			r.logHookError(hook, extName, fmt.Errorf("panic: %v", v))
		}
	}()
	if err := fn(); err != nil {
		r.logHookError(hook, extName, err)
	}
}

// logHookError logs a warning when a lifecycle hook fails.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
