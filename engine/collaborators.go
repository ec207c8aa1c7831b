package engine

import (
	"context"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
)

// KeySelector picks the routing key for a submission that did not name one.
type KeySelector interface {
	SelectKey(actions ...*action.Action) string
}

// KeySelectorFunc adapts a function to KeySelector.
type KeySelectorFunc func(actions ...*action.Action) string

// SelectKey implements KeySelector.
func (f KeySelectorFunc) SelectKey(actions ...*action.Action) string { return f(actions...) }

// preferredKey routes to the first action's preferred key, or DefaultKey.
type preferredKey struct{}

func (preferredKey) SelectKey(actions ...*action.Action) string {
	if len(actions) > 0 && actions[0].PreferredKey() != "" {
		return actions[0].PreferredKey()
	}
	return courier.DefaultKey
}

// Pauser is consulted before every sub-action. While it reports true the
// action waits with exponential backoff.
type Pauser interface {
	ShouldPause(a *action.Action) bool
}

// PauserFunc adapts a function to Pauser.
type PauserFunc func(a *action.Action) bool

// ShouldPause implements Pauser.
func (f PauserFunc) ShouldPause(a *action.Action) bool { return f(a) }

// PauseUnless pauses every action while available reports false, for
// example while the network is down.
func PauseUnless(available func() bool) Pauser {
	return PauserFunc(func(*action.Action) bool { return !available() })
}

// Preparer injects dependencies into an action once before its first
// attempt. Errors are logged and never stop the action.
type Preparer interface {
	Prepare(ctx context.Context, a *action.Action) error
}

// PreparerFunc adapts a function to Preparer.
type PreparerFunc func(ctx context.Context, a *action.Action) error

// Prepare implements Preparer.
func (f PreparerFunc) Prepare(ctx context.Context, a *action.Action) error { return f(ctx, a) }

// Scheduler decides where a submission's result is delivered. Without one
// the result is delivered on the worker goroutine.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Detached delivers each result on a fresh goroutine so the worker can move
// on to the next action without waiting for the receiver.
func Detached() Scheduler {
	return SchedulerFunc(func(fn func()) { go fn() })
}
