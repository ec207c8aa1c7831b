package courier

// Reserved routing keys.
const (
	// DefaultKey is used when neither the caller nor the action names a key.
	DefaultKey = "default"

	// AsyncKey routes to the concurrent worker group. Actions under this key
	// have no ordering guarantee.
	AsyncKey = "async"
)
