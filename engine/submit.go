package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
)

// Submit routes a to the key chosen by the engine's KeySelector and
// returns a Future for its result. Cancelling ctx has the same effect as
// Future.Cancel; it never interrupts a running action.
func (e *Engine) Submit(ctx context.Context, a *action.Action, opts ...SubmitOption) (*Future, error) {
	return e.submit(ctx, "", []*action.Action{a}, opts)
}

// SubmitKey routes a to key.
func (e *Engine) SubmitKey(ctx context.Context, key string, a *action.Action, opts ...SubmitOption) (*Future, error) {
	if key == "" {
		key = courier.DefaultKey
	}
	return e.submit(ctx, key, []*action.Action{a}, opts)
}

// SubmitAsync runs a on the concurrent worker group, with no ordering
// relative to other submissions.
func (e *Engine) SubmitAsync(ctx context.Context, a *action.Action, opts ...SubmitOption) (*Future, error) {
	return e.submit(ctx, courier.AsyncKey, []*action.Action{a}, opts)
}

// SubmitBatch runs actions one after another on a single worker. The first
// failure stops the batch; results are delivered together once every
// action has succeeded. Batches of more than one action cannot contain
// persistent actions.
func (e *Engine) SubmitBatch(ctx context.Context, actions []*action.Action, opts ...SubmitOption) (*Future, error) {
	return e.submit(ctx, "", actions, opts)
}

// SubmitBatchKey runs a batch on key.
func (e *Engine) SubmitBatchKey(ctx context.Context, key string, actions []*action.Action, opts ...SubmitOption) (*Future, error) {
	if key == "" {
		key = courier.DefaultKey
	}
	return e.submit(ctx, key, actions, opts)
}

func (e *Engine) submit(ctx context.Context, key string, actions []*action.Action, opts []SubmitOption) (*Future, error) {
	if e.stopped.Load() {
		return nil, courier.ErrStopped
	}
	persistent, err := e.validate(actions)
	if err != nil {
		return nil, err
	}

	o := submitOptions{scheduler: e.scheduler}
	for _, opt := range opts {
		opt(&o)
	}

	if key == "" {
		key = e.selectKey(actions)
	}
	e.bind(key, actions)

	fut := newFuture()
	sub := &submission{
		engine:       e,
		ctx:          ctx,
		key:          key,
		actions:      actions,
		future:       fut,
		scheduler:    o.scheduler,
		routed:       true,
		unsubscribed: fut.Cancelled,
	}
	for _, a := range actions {
		e.extensions.EmitActionSubmitted(ctx, a)
	}
	if persistent {
		sub.record = e.persistAsync(context.WithoutCancel(ctx), actions[0])
	}
	fut.detach = context.AfterFunc(ctx, fut.Cancel)

	w := e.workers.For(key)
	if err := e.restore.dispatch(w, func() { e.run(sub) }); err != nil {
		fut.release()
		if sub.record != nil {
			e.discard(ctx, sub)
		}
		return nil, fmt.Errorf("%w: key %q: %w", courier.ErrStopped, key, err)
	}
	return fut, nil
}

// validate rejects configuration errors before any worker is touched.
func (e *Engine) validate(actions []*action.Action) (persistent bool, err error) {
	if len(actions) == 0 {
		return false, courier.ErrNoActions
	}
	for _, a := range actions {
		if a == nil {
			return false, fmt.Errorf("%w: nil action", courier.ErrNoActions)
		}
		if a.IsPersistent() {
			persistent = true
		}
	}
	if !persistent {
		return false, nil
	}
	if len(actions) > 1 {
		return false, courier.ErrPersistentBatch
	}
	if e.store == nil {
		return false, courier.ErrNoStore
	}
	if !e.actions.Has(actions[0].Name()) {
		return false, fmt.Errorf("%w: %q", courier.ErrNotRestorable, actions[0].Name())
	}
	return true, nil
}

// selectKey asks the KeySelector, falling back to DefaultKey on an empty
// answer or a panic.
func (e *Engine) selectKey(actions []*action.Action) string {
	var key string
	if err := safely(func() error { key = e.selector.SelectKey(actions...); return nil }); err != nil {
		e.logger.Warn("key selector failed, using default key", slog.String("error", err.Error()))
	}
	if key == "" {
		return courier.DefaultKey
	}
	return key
}

// bind assigns the routing key and the default retry limit.
func (e *Engine) bind(key string, actions []*action.Action) {
	for _, a := range actions {
		a.AssignKey(key)
		a.EnsureRetryLimit(e.config.DefaultRetryLimit)
	}
}

// discard removes the record of a submission that never reached a worker.
func (e *Engine) discard(ctx context.Context, sub *submission) {
	<-sub.record.done
	if sub.record.ok {
		e.deleteRecord(context.WithoutCancel(ctx), sub.record.id, sub.actions[0])
	}
}

// run is the worker task for a routed submission.
func (e *Engine) run(sub *submission) {
	out := e.execute(sub)
	fut, sched := sub.future, sub.scheduler
	defer fut.release()
	if out.abandoned {
		return
	}
	deliver := func() { fut.resolve(out.results, out.err) }
	if sched == nil {
		deliver()
		return
	}
	if err := safely(func() error { sched.Schedule(deliver); return nil }); err != nil {
		e.logger.Warn("completion scheduler failed, delivering on worker",
			slog.String("key", sub.key),
			slog.String("error", err.Error()),
		)
		deliver()
	}
}

// RunBlocking runs a on the calling goroutine and returns its result. It
// bypasses the workers and the store: persistent actions are not recorded.
// If ctx ends before a starts and a does not run when unsubscribed, it
// returns courier.ErrCancelled.
func (e *Engine) RunBlocking(ctx context.Context, a *action.Action) (any, error) {
	results, err := e.RunBlockingBatch(ctx, a)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// RunBlockingBatch runs actions in order on the calling goroutine. The
// first failure stops the batch.
func (e *Engine) RunBlockingBatch(ctx context.Context, actions ...*action.Action) ([]any, error) {
	if e.stopped.Load() {
		return nil, courier.ErrStopped
	}
	if len(actions) == 0 {
		return nil, courier.ErrNoActions
	}
	for _, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("%w: nil action", courier.ErrNoActions)
		}
	}

	key := e.selectKey(actions)
	e.bind(key, actions)
	for _, a := range actions {
		e.extensions.EmitActionSubmitted(ctx, a)
	}

	out := e.execute(&submission{
		engine:       e,
		ctx:          ctx,
		key:          key,
		actions:      actions,
		unsubscribed: func() bool { return ctx.Err() != nil },
	})
	return out.results, out.err
}
