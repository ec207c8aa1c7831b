package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/courier/action"
	"github.com/xraph/courier/ext"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Extension)(nil)
	_ ext.ActionSubmitted  = (*Extension)(nil)
	_ ext.ActionPersisted  = (*Extension)(nil)
	_ ext.ActionRetrying   = (*Extension)(nil)
	_ ext.ActionCompleted  = (*Extension)(nil)
	_ ext.ActionFailed     = (*Extension)(nil)
	_ ext.ActionAbandoned  = (*Extension)(nil)
	_ ext.RestoreCompleted = (*Extension)(nil)
	_ ext.Shutdown         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit record.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges courier lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Action lifecycle hooks ──────────────────────────

// OnActionSubmitted implements ext.ActionSubmitted.
func (e *Extension) OnActionSubmitted(ctx context.Context, a *action.Action) error {
	return e.record(ctx, ActionSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceAction, a.String(), CategoryAction, nil,
		"action_name", a.Name(),
		"key", a.Key(),
		"persistent", a.IsPersistent(),
	)
}

// OnActionPersisted implements ext.ActionPersisted.
func (e *Extension) OnActionPersisted(ctx context.Context, a *action.Action, recordID int64) error {
	return e.record(ctx, ActionPersisted, SeverityInfo, OutcomeSuccess,
		ResourceAction, a.String(), CategoryAction, nil,
		"action_name", a.Name(),
		"key", a.Key(),
		"record_id", recordID,
	)
}

// OnActionRetrying implements ext.ActionRetrying.
func (e *Extension) OnActionRetrying(ctx context.Context, a *action.Action, retry int, cause error) error {
	return e.record(ctx, ActionRetrying, SeverityWarning, OutcomeFailure,
		ResourceAction, a.String(), CategoryAction, cause,
		"action_name", a.Name(),
		"key", a.Key(),
		"retry", retry,
		"retry_limit", a.RetryLimit(),
	)
}

// OnActionCompleted implements ext.ActionCompleted.
func (e *Extension) OnActionCompleted(ctx context.Context, a *action.Action, elapsed time.Duration) error {
	return e.record(ctx, ActionCompleted, SeverityInfo, OutcomeSuccess,
		ResourceAction, a.String(), CategoryAction, nil,
		"action_name", a.Name(),
		"key", a.Key(),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnActionFailed implements ext.ActionFailed.
func (e *Extension) OnActionFailed(ctx context.Context, a *action.Action, actionErr error) error {
	return e.record(ctx, ActionFailed, SeverityCritical, OutcomeFailure,
		ResourceAction, a.String(), CategoryAction, actionErr,
		"action_name", a.Name(),
		"key", a.Key(),
		"retry_count", a.RetryCount(),
		"retry_limit", a.RetryLimit(),
	)
}

// OnActionAbandoned implements ext.ActionAbandoned.
func (e *Extension) OnActionAbandoned(ctx context.Context, a *action.Action) error {
	return e.record(ctx, ActionAbandoned, SeverityWarning, OutcomeFailure,
		ResourceAction, a.String(), CategoryAction, nil,
		"action_name", a.Name(),
		"key", a.Key(),
	)
}

// ── Engine lifecycle hooks ──────────────────────────

// OnRestoreCompleted implements ext.RestoreCompleted.
func (e *Extension) OnRestoreCompleted(ctx context.Context, restored int, restoreErr error) error {
	severity, outcome := SeverityInfo, OutcomeSuccess
	if restoreErr != nil {
		severity, outcome = SeverityCritical, OutcomeFailure
	}
	return e.record(ctx, ActionRestoreComplete, severity, outcome,
		ResourceEngine, "", CategoryEngine, restoreErr,
		"restored", restored,
	)
}

// OnShutdown implements ext.Shutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionShutdown, SeverityInfo, OutcomeSuccess,
		ResourceEngine, "", CategoryEngine, nil,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	act, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[act] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     act,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", act,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
