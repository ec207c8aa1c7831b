// Package persist defines the durable queue boundary used by the engine.
//
// A Store holds one record per unfinished persistent action. The engine
// creates the record before the first attempt, rewrites it after every
// retryable failure and deletes it once the action reaches a terminal
// outcome. On startup the engine lists what is left and replays it.
//
// Implementations live under store/. All engine writes arrive from a
// single goroutine; ListIncomplete and DeleteAll may run concurrently with
// them during restore.
package persist

import "context"

// Record is one persisted action.
type Record struct {
	// ID is assigned by the store and increases with insertion order.
	ID int64

	// Data is the encoded action snapshot.
	Data []byte
}

// Store is the durable queue adapter.
type Store interface {
	// Persist inserts a record and returns its id.
	Persist(ctx context.Context, data []byte) (int64, error)

	// Update replaces the data of an existing record.
	Update(ctx context.Context, id int64, data []byte) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id int64) error

	// ListIncomplete returns every record in ascending id order.
	ListIncomplete(ctx context.Context) ([]Record, error)

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error
}
