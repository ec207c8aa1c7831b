package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xraph/courier"
)

// Future is the pending result of an asynchronous submission. It resolves
// exactly once: with the results of every action in the submission, with
// the first terminal error, or with courier.ErrCancelled.
type Future struct {
	done      chan struct{}
	once      sync.Once
	cancelled atomic.Bool
	detach    func() bool

	results []any
	err     error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve stores the outcome unless the future already resolved. It
// reports whether this call won.
func (f *Future) resolve(results []any, err error) bool {
	won := false
	f.once.Do(func() {
		f.results, f.err = results, err
		won = true
		close(f.done)
	})
	return won
}

// release stops watching the submitting context. Only the worker that ran
// the submission calls it.
func (f *Future) release() {
	if f.detach != nil {
		f.detach()
	}
}

// Done is closed once the future has resolved.
func (f *Future) Done() <-chan struct{} { return f.done }

// Cancel unsubscribes from the submission. The future resolves with
// courier.ErrCancelled at once and later results are dropped. Actions that
// do not run when unsubscribed are abandoned before they start; an action
// that is already running is not interrupted.
func (f *Future) Cancel() {
	f.cancelled.Store(true)
	f.resolve(nil, courier.ErrCancelled)
}

// Cancelled reports whether Cancel was called or the submitting context
// ended.
func (f *Future) Cancelled() bool { return f.cancelled.Load() }

// Wait blocks until the future resolves or ctx ends and returns the first
// action's result. Ending ctx does not cancel the submission.
func (f *Future) Wait(ctx context.Context) (any, error) {
	results, err := f.WaitAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// WaitAll blocks until the future resolves or ctx ends and returns one
// result per action, in submission order.
func (f *Future) WaitAll(ctx context.Context) ([]any, error) {
	select {
	case <-f.done:
		return f.results, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Await waits for f and converts the first result to T.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	var zero T
	v, err := f.Wait(ctx)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("courier/engine: result is %T, not %T", v, zero)
	}
	return t, nil
}
