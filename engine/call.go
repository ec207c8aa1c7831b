package engine

import (
	"context"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
)

// Call runs a synchronously from inside another action and returns its
// result. ctx must be the context the engine passed to the calling action.
//
// The nested action runs on the caller's goroutine under the caller's key,
// so it cannot deadlock on the caller's worker. It goes through the same
// prepare, pause and retry steps as any other action but is never
// persisted, and it inherits the caller's subscription.
func Call(ctx context.Context, a *action.Action) (any, error) {
	parent, ok := frameFrom(ctx)
	if !ok {
		return nil, courier.ErrNotInCall
	}
	if a == nil {
		return nil, courier.ErrNoActions
	}
	e := parent.engine
	e.bind(parent.key, []*action.Action{a})
	e.extensions.EmitActionSubmitted(ctx, a)

	out := e.execute(&submission{
		engine:       e,
		ctx:          ctx,
		key:          parent.key,
		actions:      []*action.Action{a},
		unsubscribed: parent.unsubscribed,
	})
	if out.err != nil {
		return nil, out.err
	}
	return out.results[0], nil
}
