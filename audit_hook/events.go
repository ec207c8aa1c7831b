package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionSubmitted       = "action.submitted"
	ActionPersisted       = "action.persisted"
	ActionRetrying        = "action.retrying"
	ActionCompleted       = "action.completed"
	ActionFailed          = "action.failed"
	ActionAbandoned       = "action.abandoned"
	ActionRestoreComplete = "restore.completed"
	ActionShutdown        = "engine.shutdown"
)

// Audit event categories group related actions.
const (
	CategoryAction = "courier.action"
	CategoryEngine = "courier.engine"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceAction = "action"
	ResourceEngine = "engine"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionSubmitted,
		ActionPersisted,
		ActionRetrying,
		ActionCompleted,
		ActionFailed,
		ActionAbandoned,
		ActionRestoreComplete,
		ActionShutdown,
	}
}
