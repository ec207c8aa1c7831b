// Package memory provides an in-memory durable queue backend. Records do not
// survive the process, which makes it suitable for tests and development,
// and for simulating a restart by handing the same Store to a new engine.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/courier"
	"github.com/xraph/courier/persist"
	"github.com/xraph/courier/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
// Safe for concurrent access.
type Store struct {
	mu      sync.RWMutex
	records map[int64][]byte
	nextID  int64
}

// New returns a new empty Store.
func New() *Store {
	return &Store{records: make(map[int64][]byte)}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// persist.Store
// ──────────────────────────────────────────────────

// Persist stores a copy of data under the next id.
func (m *Store) Persist(_ context.Context, data []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.records[m.nextID] = clone(data)
	return m.nextID, nil
}

// Update replaces the data of an existing record.
func (m *Store) Update(_ context.Context, id int64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("courier/memory: update %d: %w", id, courier.ErrRecordNotFound)
	}
	m.records[id] = clone(data)
	return nil
}

// Delete removes a record.
func (m *Store) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// ListIncomplete returns copies of all records in ascending id order.
func (m *Store) ListIncomplete(_ context.Context) ([]persist.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]persist.Record, 0, len(m.records))
	for id, data := range m.records {
		out = append(out, persist.Record{ID: id, Data: clone(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteAll removes every record. Ids keep increasing afterwards.
func (m *Store) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.records)
	return nil
}

// Len returns the number of stored records.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
