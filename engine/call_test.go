package engine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
	"github.com/xraph/courier/engine"
)

// ──────────────────────────────────────────────────
// Call
// ──────────────────────────────────────────────────

func TestCall_RunsOnCallersKey(t *testing.T) {
	eng := newEngine(t)

	var innerKey atomic.Value
	inner := action.New("inner", func(ctx context.Context, a *action.Action) (any, error) {
		innerKey.Store(a.Key())
		return 20, nil
	}, action.WithKey("elsewhere"))

	outer := action.New("outer", func(ctx context.Context, _ *action.Action) (any, error) {
		v, err := engine.Call(ctx, inner)
		if err != nil {
			return nil, err
		}
		return v.(int) + 1, nil
	})

	f, err := eng.SubmitKey(context.Background(), "serial", outer)
	if err != nil {
		t.Fatalf("SubmitKey: %v", err)
	}
	v, err := wait(t, f)
	if err != nil || v != 21 {
		t.Fatalf("Wait = %v, %v; want 21", v, err)
	}
	if innerKey.Load() != "serial" {
		t.Errorf("inner key = %v, want serial", innerKey.Load())
	}
}

func TestCall_DeepNesting(t *testing.T) {
	eng := newEngine(t)

	var level func(depth int) *action.Action
	level = func(depth int) *action.Action {
		return action.New("level", func(ctx context.Context, _ *action.Action) (any, error) {
			if depth == 0 {
				return 0, nil
			}
			v, err := engine.Call(ctx, level(depth-1))
			if err != nil {
				return nil, err
			}
			return v.(int) + 1, nil
		})
	}

	f, err := eng.Submit(context.Background(), level(5))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v, err := wait(t, f); err != nil || v != 5 {
		t.Fatalf("Wait = %v, %v; want 5", v, err)
	}
}

func TestCall_RetriesAndFailures(t *testing.T) {
	eng := newEngine(t)
	boom := errors.New("inner broke")

	var attempts atomic.Int32
	outer := action.New("outer", func(ctx context.Context, _ *action.Action) (any, error) {
		return engine.Call(ctx, action.New("inner", func(context.Context, *action.Action) (any, error) {
			attempts.Add(1)
			return nil, boom
		}, action.WithRetryLimit(2)))
	})

	f, _ := eng.Submit(context.Background(), outer)
	if _, err := wait(t, f); !errors.Is(err, boom) {
		t.Fatalf("Wait = %v, want %v", err, boom)
	}
	if attempts.Load() != 2 {
		t.Errorf("inner attempts = %d, want 2", attempts.Load())
	}
}

func TestCall_InheritsSubscription(t *testing.T) {
	eng := newEngine(t)

	started := make(chan struct{})
	proceed := make(chan struct{})
	innerErr := make(chan error, 1)
	outer := action.New("outer", func(ctx context.Context, _ *action.Action) (any, error) {
		close(started)
		<-proceed
		_, err := engine.Call(ctx, action.New("inner", value(nil), action.WithRunIfUnsubscribed(false)))
		innerErr <- err
		return nil, err
	})

	f, err := eng.Submit(context.Background(), outer)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started
	f.Cancel()
	close(proceed)

	if err := <-innerErr; !errors.Is(err, courier.ErrCancelled) {
		t.Errorf("Call after cancel = %v, want ErrCancelled", err)
	}
}

func TestCall_OutsideAnAction(t *testing.T) {
	if _, err := engine.Call(context.Background(), action.New("stray", value(nil))); !errors.Is(err, courier.ErrNotInCall) {
		t.Fatalf("Call = %v, want ErrNotInCall", err)
	}
}

// ──────────────────────────────────────────────────
// RunBlocking
// ──────────────────────────────────────────────────

func TestRunBlocking_ReturnsResult(t *testing.T) {
	eng := newEngine(t)

	v, err := eng.RunBlocking(context.Background(), action.New("sync", value("done")))
	if err != nil || v != "done" {
		t.Fatalf("RunBlocking = %v, %v", v, err)
	}
	// No worker is involved.
	if keys := eng.ActiveKeys(); len(keys) != 0 {
		t.Errorf("ActiveKeys() = %v, want none", keys)
	}
}

func TestRunBlocking_CancelledContext(t *testing.T) {
	eng := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	_, err := eng.RunBlocking(ctx, action.New("skipped", func(context.Context, *action.Action) (any, error) {
		ran.Store(true)
		return nil, nil
	}, action.WithRunIfUnsubscribed(false)))
	if !errors.Is(err, courier.ErrCancelled) {
		t.Errorf("RunBlocking = %v, want ErrCancelled", err)
	}
	if ran.Load() {
		t.Error("action ran after its context was cancelled")
	}

	// Actions that run when unsubscribed still run.
	v, err := eng.RunBlocking(ctx, action.New("stubborn", value("ran")))
	if err != nil || v != "ran" {
		t.Errorf("RunBlocking = %v, %v; want ran", v, err)
	}
}

func TestRunBlockingBatch_StopsAtFirstFailure(t *testing.T) {
	eng := newEngine(t)
	boom := errors.New("second failed")

	var thirdRan atomic.Bool
	results, err := eng.RunBlockingBatch(context.Background(),
		action.New("first", value(1)),
		action.New("second", func(context.Context, *action.Action) (any, error) { return nil, boom }),
		action.New("third", func(context.Context, *action.Action) (any, error) {
			thirdRan.Store(true)
			return 3, nil
		}),
	)
	if !errors.Is(err, boom) {
		t.Fatalf("RunBlockingBatch = %v, want %v", err, boom)
	}
	if results != nil {
		t.Errorf("results = %v, want nil on failure", results)
	}
	if thirdRan.Load() {
		t.Error("action after the failure ran")
	}

	results, err = eng.RunBlockingBatch(context.Background(), action.New("a", value("x")), action.New("b", value("y")))
	if err != nil || len(results) != 2 || results[0] != "x" || results[1] != "y" {
		t.Errorf("RunBlockingBatch = %v, %v", results, err)
	}
	if _, err := eng.RunBlockingBatch(context.Background()); !errors.Is(err, courier.ErrNoActions) {
		t.Errorf("empty batch = %v, want ErrNoActions", err)
	}
}
