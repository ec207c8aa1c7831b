// Package store defines the lifecycle-aware persistence interface shared by
// the durable queue backends.
//
// The engine only needs [persist.Store]. [Store] adds the lifecycle methods
// that applications and tools use when they own the backend:
//
//	type Store interface {
//	    persist.Store
//
//	    Migrate(ctx context.Context) error
//	    Ping(ctx context.Context) error
//	    Close() error
//	}
//
// # Available Backends
//
//   - store/memory: in-memory store for development and testing
//   - store/sqlite: SQLite backend using database/sql and modernc.org/sqlite
//   - store/postgres: PostgreSQL backend using pgx/v5
//   - store/redis: Redis backend using go-redis/v9
//
// Every backend passes the shared conformance suite in store/storetest.
//
// # Usage
//
//	s, err := sqlite.Open(ctx, "courier.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	eng, err := engine.New(engine.WithStore(s), engine.WithRegistry(reg))
//
// # Migrations
//
// sqlite.Open creates its table on open. Stores built from an existing
// handle (sqlite.NewFromDB, postgres.New, postgres.NewFromPool) need
// Migrate once at startup:
//
//	if err := s.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package store
