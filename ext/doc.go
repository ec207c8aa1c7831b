// Package ext defines the extension system for courier.
//
// Extensions are notified of lifecycle events and can react to them,
// for example by recording metrics or writing audit logs. Each lifecycle
// hook is a separate interface so extensions opt in only to the events they
// care about. Hooks for different keys run on different goroutines, so an
// extension must be safe for concurrent use.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	func (e *MyExtension) OnActionCompleted(ctx context.Context, a *action.Action, elapsed time.Duration) error {
//	    log.Printf("action %s completed in %s", a, elapsed)
//	    return nil
//	}
//
// # Action Lifecycle Hooks
//
//   - [ActionSubmitted]: action accepted and bound to a key
//   - [ActionPersisted]: durable record created
//   - [ActionStarted]: first attempt is about to run
//   - [ActionPaused]: pause gate is holding the action back
//   - [ActionRetrying]: attempt failed, another one follows
//   - [ActionCompleted]: action finished successfully
//   - [ActionFailed]: action failed with no retries remaining
//   - [ActionAbandoned]: submitter cancelled, remaining work skipped
//
// # Engine Hooks
//
//   - [RestoreCompleted]: persisted actions were replayed
//   - [Shutdown]: the engine is shutting down
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. Hook errors are logged and
// never reach the action.
package ext
