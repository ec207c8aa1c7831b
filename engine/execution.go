package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
	"github.com/xraph/courier/backoff"
	"github.com/xraph/courier/id"
)

// submission is everything a worker needs to run one submit call. It is
// immutable once dispatched and doubles as the call frame that Call and
// Unsubscribed find in an action's context.
type submission struct {
	engine       *Engine
	ctx          context.Context
	key          string
	actions      []*action.Action
	future       *Future
	scheduler    Scheduler
	record       *record
	routed       bool
	unsubscribed func() bool
}

func (s *submission) isUnsubscribed() bool {
	return s.unsubscribed != nil && s.unsubscribed()
}

type frameKey struct{}

func withFrame(ctx context.Context, s *submission) context.Context {
	return context.WithValue(ctx, frameKey{}, s)
}

func frameFrom(ctx context.Context) (*submission, bool) {
	s, ok := ctx.Value(frameKey{}).(*submission)
	return s, ok
}

// Unsubscribed reports whether the submitter of the action running on ctx
// has cancelled. Long actions can poll it to stop early.
func Unsubscribed(ctx context.Context) bool {
	if s, ok := frameFrom(ctx); ok {
		return s.isUnsubscribed()
	}
	return false
}

// execution is the pooled state machine that runs one submission.
type execution struct {
	engine *Engine
	id     id.ID
	sub    *submission
	pause  *backoff.Sequence
	index  int

	persistedID int64
	persisted   bool
}

func (x *execution) reset() {
	x.engine = nil
	x.id = id.Nil
	x.sub = nil
	x.index = 0
	x.persistedID = 0
	x.persisted = false
	x.pause.Reset()
}

// outcome is what an execution hands back once it is released.
type outcome struct {
	results   []any
	err       error
	abandoned bool
}

// execute borrows a slot, runs sub to a terminal outcome and releases the
// slot before returning.
func (e *Engine) execute(sub *submission) (out outcome) {
	x := e.slots.Borrow()
	defer e.slots.Release(x)
	x.engine = e
	x.id = id.NewSubmissionID()
	x.sub = sub

	if err := safely(func() error { out = x.run(); return nil }); err != nil {
		e.logger.Error("execution panicked",
			slog.String("submission", x.id.String()),
			slog.String("key", sub.key),
			slog.String("error", err.Error()),
		)
		a := sub.actions[x.index]
		x.cleanup(context.WithoutCancel(sub.ctx), a)
		out = outcome{err: fmt.Errorf("courier/engine: execution of %s: %w", a, err)}
	}
	return out
}

// run is the state machine: wait for persist, then for each sub-action
// check the subscription, prepare, pass the pause gate and attempt with
// retries; finally delete the record.
func (x *execution) run() outcome {
	e, sub := x.engine, x.sub
	ctx := withFrame(context.WithoutCancel(sub.ctx), sub)

	if sub.record != nil {
		<-sub.record.done
		x.persistedID, x.persisted = sub.record.id, sub.record.ok
	}

	results := make([]any, 0, len(sub.actions))
	for i, a := range sub.actions {
		x.index = i

		if x.abandon(a) {
			x.cleanup(ctx, a)
			e.extensions.EmitActionAbandoned(ctx, a)
			return outcome{abandoned: true, err: courier.ErrCancelled}
		}

		x.prepare(ctx, a)
		x.pauseGate(ctx, a)

		if x.abandon(a) {
			x.cleanup(ctx, a)
			e.extensions.EmitActionAbandoned(ctx, a)
			return outcome{abandoned: true, err: courier.ErrCancelled}
		}

		if sub.routed {
			if err := e.throttle.Wait(ctx, sub.key); err != nil {
				x.log().Warn("rate limiter wait failed",
					slog.String("action", a.Name()),
					slog.String("error", err.Error()),
				)
			}
		}

		result, err := x.attempt(ctx, a)
		if err != nil {
			x.cleanup(ctx, a)
			return outcome{err: err}
		}
		results = append(results, result)
	}

	x.cleanup(ctx, sub.actions[len(sub.actions)-1])
	return outcome{results: results}
}

func (x *execution) log() *slog.Logger {
	return x.engine.logger.With(
		slog.String("submission", x.id.String()),
		slog.String("key", x.sub.key),
	)
}

// abandon reports whether a should be skipped because its submitter left.
func (x *execution) abandon(a *action.Action) bool {
	return !a.RunIfUnsubscribed() && x.sub.isUnsubscribed()
}

// prepare runs the engine preparer and then the action's own hook. Errors
// and panics are logged only.
func (x *execution) prepare(ctx context.Context, a *action.Action) {
	if p := x.engine.preparer; p != nil {
		if err := safely(func() error { return p.Prepare(ctx, a) }); err != nil {
			x.log().Warn("preparer failed",
				slog.String("action", a.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := safely(func() error { return a.Prepare(ctx) }); err != nil {
		x.log().Warn("action prepare hook failed",
			slog.String("action", a.Name()),
			slog.String("error", err.Error()),
		)
	}
}

// pauseGate sleeps while the pauser asks for it. Each consecutive pause is
// longer than the last up to PauseMax; the sequence starts over for every
// sub-action. A departed submitter ends the wait for actions that would be
// abandoned anyway.
func (x *execution) pauseGate(ctx context.Context, a *action.Action) {
	p := x.engine.pauser
	if p == nil {
		return
	}
	x.pause.Reset()
	defer x.pause.Reset()

	for x.shouldPause(p, a) {
		if x.abandon(a) {
			return
		}
		d := x.pause.Next()
		x.engine.extensions.EmitActionPaused(ctx, a, d)
		time.Sleep(d)
	}
}

func (x *execution) shouldPause(p Pauser, a *action.Action) bool {
	pause := false
	if err := safely(func() error { pause = p.ShouldPause(a); return nil }); err != nil {
		x.log().Warn("pauser failed, not pausing",
			slog.String("action", a.Name()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return pause
}

// attempt runs a through the middleware chain until it succeeds or its
// retry policy gives up.
func (x *execution) attempt(ctx context.Context, a *action.Action) (any, error) {
	e := x.engine
	start := time.Now()
	e.extensions.EmitActionStarted(ctx, a)

	for {
		result, err := e.chain(ctx, a, a.Execute)
		if err == nil {
			e.extensions.EmitActionCompleted(ctx, a, time.Since(start))
			return result, nil
		}

		decision := x.decide(a, err)
		if !decision.ShouldRetry() {
			failErr := decision.Err()
			if failErr == nil {
				failErr = err
			}
			x.log().Warn("action failed",
				slog.String("action", a.Name()),
				slog.Int("attempts", a.RetryCount()+1),
				slog.String("error", failErr.Error()),
			)
			e.extensions.EmitActionFailed(ctx, a, failErr)
			return nil, failErr
		}

		n := a.IncrementRetryCount()
		e.extensions.EmitActionRetrying(ctx, a, n, err)
		if hookErr := safely(func() error { return a.PreRetry(ctx) }); hookErr != nil {
			x.log().Warn("action pre-retry hook failed",
				slog.String("action", a.Name()),
				slog.String("error", hookErr.Error()),
			)
		}
		if x.persisted {
			e.updateRecord(ctx, x.persistedID, a)
		}
		if e.retryBackoff != nil {
			time.Sleep(e.retryBackoff.Delay(n))
		}
	}
}

// decide asks the action's retry policy, failing on a policy panic.
func (x *execution) decide(a *action.Action, err error) action.Decision {
	var d action.Decision
	if perr := safely(func() error { d = a.ShouldRetry(err); return nil }); perr != nil {
		x.log().Warn("retry policy failed",
			slog.String("action", a.Name()),
			slog.String("error", perr.Error()),
		)
		return action.Fail(err)
	}
	return d
}

// cleanup deletes the durable record, whatever the outcome.
func (x *execution) cleanup(ctx context.Context, a *action.Action) {
	if !x.persisted {
		return
	}
	x.engine.deleteRecord(ctx, x.persistedID, a)
	x.persisted = false
}
