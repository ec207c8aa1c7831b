package courier

import "errors"

var (
	// Configuration errors.
	ErrNoStore         = errors.New("courier: persistent action submitted without a durable store")
	ErrPersistentBatch = errors.New("courier: persistent actions cannot be submitted in a batch")
	ErrNoActions       = errors.New("courier: no actions submitted")
	ErrInvalidConfig   = errors.New("courier: invalid configuration")
	ErrNotRestorable   = errors.New("courier: persistent action has no registered name")

	// Lifecycle errors.
	ErrStopped   = errors.New("courier: engine stopped")
	ErrCancelled = errors.New("courier: submission cancelled")
	ErrNotInCall = errors.New("courier: blocking call made outside an action")

	// Restore errors.
	ErrUnknownAction  = errors.New("courier: unknown action name")
	ErrCorruptRecord  = errors.New("courier: corrupt persisted record")
	ErrRecordNotFound = errors.New("courier: persisted record not found")
)
