package ext

import (
	"context"
	"time"

	"github.com/xraph/courier/action"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Action lifecycle hooks
// ──────────────────────────────────────────────────

// ActionSubmitted is called after an action is accepted by the engine and
// bound to its routing key.
type ActionSubmitted interface {
	OnActionSubmitted(ctx context.Context, a *action.Action) error
}

// ActionPersisted is called after the durable record of an action is
// created.
type ActionPersisted interface {
	OnActionPersisted(ctx context.Context, a *action.Action, recordID int64) error
}

// ActionStarted is called when a worker begins the first attempt of an
// action.
type ActionStarted interface {
	OnActionStarted(ctx context.Context, a *action.Action) error
}

// ActionPaused is called each time the pause gate holds an action back.
type ActionPaused interface {
	OnActionPaused(ctx context.Context, a *action.Action, delay time.Duration) error
}

// ActionRetrying is called when an attempt failed and the retry policy
// asked for another one. attempt is the number of the upcoming attempt.
type ActionRetrying interface {
	OnActionRetrying(ctx context.Context, a *action.Action, attempt int, err error) error
}

// ActionCompleted is called after an action finishes successfully.
type ActionCompleted interface {
	OnActionCompleted(ctx context.Context, a *action.Action, elapsed time.Duration) error
}

// ActionFailed is called when an action fails terminally.
type ActionFailed interface {
	OnActionFailed(ctx context.Context, a *action.Action, err error) error
}

// ActionAbandoned is called when an action is skipped because its
// submitter cancelled.
type ActionAbandoned interface {
	OnActionAbandoned(ctx context.Context, a *action.Action) error
}

// ──────────────────────────────────────────────────
// Engine lifecycle hooks
// ──────────────────────────────────────────────────

// RestoreCompleted is called once the restore coordinator reaches the
// restored state. err is non-nil if the restore failed and the durable
// store was wiped.
type RestoreCompleted interface {
	OnRestoreCompleted(ctx context.Context, restored int, err error) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
