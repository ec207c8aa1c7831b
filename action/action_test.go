package action_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
)

type greeting struct {
	Name string `json:"name"`
}

var errBoom = errors.New("boom")

func TestNew_Defaults(t *testing.T) {
	a := action.New("noop", func(context.Context, *action.Action) (any, error) { return nil, nil })

	assert.Equal(t, "noop", a.Name())
	assert.False(t, a.IsPersistent())
	assert.True(t, a.RunIfUnsubscribed())
	assert.Equal(t, courier.DefaultRetryLimit, a.RetryLimit())
	assert.Equal(t, 0, a.RetryCount())
	assert.Empty(t, a.Key())
}

func TestExecute_ExposesActionThroughContext(t *testing.T) {
	var seen *action.Action
	a := action.New("ctx", func(ctx context.Context, _ *action.Action) (any, error) {
		seen, _ = action.FromContext(ctx)
		return "ok", nil
	})

	v, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Same(t, a, seen)
}

func TestExecute_NoWork(t *testing.T) {
	a := action.New("empty", nil)
	_, err := a.Execute(context.Background())
	assert.ErrorIs(t, err, action.ErrNoWork)
}

func TestEnsureRetryLimit_OnlyFillsUnset(t *testing.T) {
	unset := action.New("a", nil)
	unset.EnsureRetryLimit(20)
	assert.Equal(t, 20, unset.RetryLimit())

	set := action.New("b", nil, action.WithRetryLimit(3))
	set.EnsureRetryLimit(20)
	assert.Equal(t, 3, set.RetryLimit())
}

// ──────────────────────────────────────────────────
// Retry policy
// ──────────────────────────────────────────────────

func TestBounded_AllowsLimitAttempts(t *testing.T) {
	a := action.New("flaky", nil, action.WithRetryLimit(3))

	attempts := 1
	for a.ShouldRetry(errBoom).ShouldRetry() {
		a.IncrementRetryCount()
		attempts++
	}

	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, a.RetryCount())

	d := a.ShouldRetry(errBoom)
	assert.False(t, d.ShouldRetry())
	assert.ErrorIs(t, d.Err(), errBoom)
}

func TestBounded_SingleAttemptByDefault(t *testing.T) {
	a := action.New("once", nil)
	assert.False(t, a.ShouldRetry(errBoom).ShouldRetry())
}

func TestBounded_PermanentFailsImmediately(t *testing.T) {
	a := action.New("fatal", nil, action.WithRetryLimit(10))

	d := a.ShouldRetry(action.Permanent(errBoom))
	assert.False(t, d.ShouldRetry())
	assert.Same(t, errBoom, d.Err())
}

func TestRetryIf_SubstitutesPolicy(t *testing.T) {
	errTransient := errors.New("transient")
	a := action.New("picky", nil,
		action.WithRetryLimit(5),
		action.WithRetryPolicy(action.RetryIf(func(err error) bool { return errors.Is(err, errTransient) })),
	)

	assert.True(t, a.ShouldRetry(errTransient).ShouldRetry())
	assert.False(t, a.ShouldRetry(errBoom).ShouldRetry())
}

func TestCustomPolicy_CanReplaceError(t *testing.T) {
	errWrapped := errors.New("gave up")
	a := action.New("custom", nil, action.WithRetryPolicy(func(*action.Action, error) action.Decision {
		return action.Fail(errWrapped)
	}))

	assert.ErrorIs(t, a.ShouldRetry(errBoom).Err(), errWrapped)
}

// ──────────────────────────────────────────────────
// Definitions, registry and snapshots
// ──────────────────────────────────────────────────

func TestDefinition_RoundTripsPayload(t *testing.T) {
	def := action.NewDefinition("greet", func(_ context.Context, p greeting) (any, error) {
		return "hello " + p.Name, nil
	}, action.WithKey("greetings"))

	a, err := def.New(greeting{Name: "ada"}, action.Persistent())
	require.NoError(t, err)
	assert.True(t, a.IsPersistent())
	assert.Equal(t, "greetings", a.PreferredKey())

	v, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello ada", v)
}

func TestRegistry_RestoreContinuesRetryCount(t *testing.T) {
	reg := action.NewRegistry()
	var preRetries int
	def := action.NewDefinition("greet", func(_ context.Context, p greeting) (any, error) {
		return p.Name, nil
	}, action.WithPreRetry(func(context.Context, *action.Action) error {
		preRetries++
		return nil
	}))
	action.RegisterDefinition(reg, def)

	a, err := def.New(greeting{Name: "grace"}, action.Persistent(), action.WithRetryLimit(4), action.WithTimeout(time.Second))
	require.NoError(t, err)
	a.AssignKey("people")
	a.IncrementRetryCount()

	codec := action.JSONCodec{}
	data, err := codec.Encode(a.Snapshot())
	require.NoError(t, err)

	snap, err := codec.Decode(data)
	require.NoError(t, err)

	restored, err := reg.Restore(snap)
	require.NoError(t, err)

	assert.Equal(t, "greet", restored.Name())
	assert.Equal(t, "people", restored.PreferredKey())
	assert.Equal(t, 1, restored.RetryCount())
	assert.Equal(t, 4, restored.RetryLimit())
	assert.Equal(t, time.Second, restored.Timeout())
	assert.True(t, restored.IsPersistent())

	require.NoError(t, restored.PreRetry(context.Background()))
	assert.Equal(t, 1, preRetries)

	v, err := restored.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "grace", v)
}

func TestRegistry_RegisterClosure(t *testing.T) {
	reg := action.NewRegistry()
	reg.Register("tick", func(context.Context, *action.Action) (any, error) { return 1, nil })

	assert.True(t, reg.Has("tick"))
	assert.Equal(t, []string{"tick"}, reg.Names())

	restored, err := reg.Restore(action.Snapshot{Name: "tick", RetryLimit: 1})
	require.NoError(t, err)
	v, err := restored.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestRegistry_UnknownName(t *testing.T) {
	_, err := action.NewRegistry().Restore(action.Snapshot{Name: "ghost"})
	assert.ErrorIs(t, err, courier.ErrUnknownAction)
}

func TestJSONCodec_RejectsCorruptData(t *testing.T) {
	codec := action.JSONCodec{}

	_, err := codec.Decode([]byte("{not json"))
	assert.ErrorIs(t, err, courier.ErrCorruptRecord)

	_, err = codec.Decode([]byte(`{"v":1}`))
	assert.ErrorIs(t, err, courier.ErrCorruptRecord)

	_, err = codec.Encode(action.Snapshot{})
	assert.ErrorIs(t, err, courier.ErrNotRestorable)
}
