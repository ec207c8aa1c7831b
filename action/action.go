// Package action defines the unit of work submitted to the engine.
//
// An Action wraps a work function together with its routing preference,
// persistence flag, retry limit and lifecycle hooks. Actions that must
// survive a restart are created from a registered name (see [Registry]) so
// that the engine can rebuild them from a persisted [Snapshot].
package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/courier"
)

// Func is the work function of an action. The returned value is delivered
// to the submitter on success.
type Func func(ctx context.Context, a *Action) (any, error)

// Hook is a lifecycle callback. Hook errors are logged by the engine and
// never stop the action.
type Hook func(ctx context.Context, a *Action) error

// ErrNoWork is returned when an action without a work function is executed.
var ErrNoWork = errors.New("courier/action: action has no work function")

// Action is one unit of submitted work. An Action is owned by exactly one
// execution at a time; the engine is the only writer of its retry counter
// and routing key.
type Action struct {
	name       string
	payload    []byte
	run        Func
	opts       Options
	retryCount int
	key        string
}

// New creates an action named name that runs fn.
func New(name string, fn Func, opts ...Option) *Action {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Action{name: name, run: fn, opts: o}
}

// Name returns the action name. Persistent actions are restored by name.
func (a *Action) Name() string { return a.name }

// Payload returns the serialized payload carried by the action, if any.
func (a *Action) Payload() []byte { return a.payload }

// Key returns the routing key assigned by the engine at submission. It is
// empty before submission.
func (a *Action) Key() string { return a.key }

// PreferredKey returns the key the action asks to be routed to, or "".
func (a *Action) PreferredKey() string { return a.opts.Key }

// IsPersistent reports whether the action is recorded in the durable store.
func (a *Action) IsPersistent() bool { return a.opts.Persistent }

// RunIfUnsubscribed reports whether execution continues after the
// submitter cancels.
func (a *Action) RunIfUnsubscribed() bool { return a.opts.RunIfUnsubscribed }

// RetryLimit returns the maximum number of execution attempts.
func (a *Action) RetryLimit() int {
	if a.opts.RetryLimit <= 0 {
		return courier.DefaultRetryLimit
	}
	return a.opts.RetryLimit
}

// RetryCount returns how many retries have been started. It is 0 during the
// first attempt and N-1 during attempt N.
func (a *Action) RetryCount() int { return a.retryCount }

// Timeout returns the per-attempt timeout, or 0 for none.
func (a *Action) Timeout() time.Duration { return a.opts.Timeout }

// String implements fmt.Stringer.
func (a *Action) String() string {
	if a.key == "" {
		return a.name
	}
	return fmt.Sprintf("%s@%s", a.name, a.key)
}

// ──────────────────────────────────────────────────
// Engine-facing methods
// ──────────────────────────────────────────────────

// Execute runs one attempt of the work function. The action is available
// to the work function through FromContext.
func (a *Action) Execute(ctx context.Context) (any, error) {
	if a.run == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoWork, a.name)
	}
	return a.run(NewContext(ctx, a), a)
}

// Prepare runs the action's own preparation hook.
func (a *Action) Prepare(ctx context.Context) error {
	if a.opts.Prepare == nil {
		return nil
	}
	return a.opts.Prepare(NewContext(ctx, a), a)
}

// PreRetry runs the hook invoked after the retry counter is incremented
// and before the next attempt.
func (a *Action) PreRetry(ctx context.Context) error {
	if a.opts.PreRetry == nil {
		return nil
	}
	return a.opts.PreRetry(NewContext(ctx, a), a)
}

// ShouldRetry asks the action's retry policy what to do after err.
func (a *Action) ShouldRetry(err error) Decision {
	if a.opts.RetryPolicy != nil {
		return a.opts.RetryPolicy(a, err)
	}
	return Bounded(a, err)
}

// IncrementRetryCount advances the retry counter and returns the new value.
func (a *Action) IncrementRetryCount() int {
	a.retryCount++
	return a.retryCount
}

// AssignKey records the routing key chosen by the engine.
func (a *Action) AssignKey(key string) { a.key = key }

// EnsureRetryLimit sets the attempt limit if the action did not choose one.
func (a *Action) EnsureRetryLimit(limit int) {
	if a.opts.RetryLimit <= 0 && limit > 0 {
		a.opts.RetryLimit = limit
	}
}

// ──────────────────────────────────────────────────
// Context plumbing
// ──────────────────────────────────────────────────

type ctxKey struct{}

// NewContext returns a copy of ctx carrying a.
func NewContext(ctx context.Context, a *Action) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the action currently executing on ctx, if any.
func FromContext(ctx context.Context) (*Action, bool) {
	a, ok := ctx.Value(ctxKey{}).(*Action)
	return a, ok
}
