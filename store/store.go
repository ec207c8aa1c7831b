package store

import (
	"context"

	"github.com/xraph/courier/persist"
)

// Store is a durable queue backend with lifecycle management.
type Store interface {
	persist.Store

	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases resources owned by the store.
	Close() error
}
