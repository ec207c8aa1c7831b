// Package sqlite implements the durable queue on SQLite using database/sql
// and the pure-Go modernc.org/sqlite driver. Records live in a single
// table whose AUTOINCREMENT key gives the restore order:
//
//	actions(_id INTEGER PRIMARY KEY AUTOINCREMENT, serialized_action BLOB)
//
// Usage:
//
//	s, err := sqlite.Open(ctx, "courier.db")
//	if err != nil { ... }
//	defer s.Close()
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/xraph/courier"
	"github.com/xraph/courier/persist"
	"github.com/xraph/courier/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

const createActionsTable = `
CREATE TABLE IF NOT EXISTS actions (
    _id               INTEGER PRIMARY KEY AUTOINCREMENT,
    serialized_action BLOB
)`

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is a SQLite implementation of store.Store.
type Store struct {
	db     *sql.DB
	owned  bool
	logger *slog.Logger
}

// Open opens the SQLite database at path, enables WAL mode and creates the
// actions table.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("courier/sqlite: open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("courier/sqlite: %s: %w", pragma, err)
		}
	}

	s := NewFromDB(db, opts...)
	s.owned = true
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing database handle. The caller owns db and must
// call Migrate before use.
func NewFromDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the actions table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createActionsTable); err != nil {
		return fmt.Errorf("courier/sqlite: create actions table: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Persist inserts a record.
func (s *Store) Persist(ctx context.Context, data []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO actions (serialized_action) VALUES (?)`, data)
	if err != nil {
		return 0, fmt.Errorf("courier/sqlite: persist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("courier/sqlite: persist last insert id: %w", err)
	}
	return id, nil
}

// Update replaces the serialized action of record id.
func (s *Store) Update(ctx context.Context, id int64, data []byte) error {
	res, err := s.db.ExecContext(ctx, `UPDATE actions SET serialized_action = ? WHERE _id = ?`, data, id)
	if err != nil {
		return fmt.Errorf("courier/sqlite: update %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("courier/sqlite: update %d rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("courier/sqlite: update %d: %w", id, courier.ErrRecordNotFound)
	}
	return nil
}

// Delete removes record id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM actions WHERE _id = ?`, id); err != nil {
		return fmt.Errorf("courier/sqlite: delete %d: %w", id, err)
	}
	return nil
}

// ListIncomplete returns every record ordered by _id.
func (s *Store) ListIncomplete(ctx context.Context) ([]persist.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT _id, serialized_action FROM actions ORDER BY _id ASC`)
	if err != nil {
		return nil, fmt.Errorf("courier/sqlite: list incomplete: %w", err)
	}
	defer rows.Close()

	var out []persist.Record
	for rows.Next() {
		var rec persist.Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, fmt.Errorf("courier/sqlite: scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("courier/sqlite: iterate records: %w", err)
	}
	return out, nil
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM actions`)
	if err != nil {
		return fmt.Errorf("courier/sqlite: delete all: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Warn("deleted all persisted actions", slog.Int64("count", n))
	}
	return nil
}
