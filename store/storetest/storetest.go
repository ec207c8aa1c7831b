// Package storetest is a conformance suite for durable queue backends.
//
//	func TestConformance(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) persist.Store { return memory.New() })
//	}
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/courier/persist"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) persist.Store

// Run executes every conformance check against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s persist.Store)
	}{
		{"PersistAssignsIncreasingIDs", testPersistAssignsIncreasingIDs},
		{"ListIncompleteAscending", testListIncompleteAscending},
		{"UpdateReplacesData", testUpdateReplacesData},
		{"UpdateMissingFails", testUpdateMissingFails},
		{"DeleteRemovesRecord", testDeleteRemovesRecord},
		{"DeleteMissingIsNoop", testDeleteMissingIsNoop},
		{"DeleteAllEmptiesStore", testDeleteAllEmptiesStore},
		{"ReturnedDataIsIsolated", testReturnedDataIsIsolated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func testPersistAssignsIncreasingIDs(t *testing.T, s persist.Store) {
	ctx := context.Background()
	first, err := s.Persist(ctx, []byte("a"))
	require.NoError(t, err)
	second, err := s.Persist(ctx, []byte("b"))
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func testListIncompleteAscending(t *testing.T, s persist.Store) {
	ctx := context.Background()
	var ids []int64
	for _, d := range []string{"one", "two", "three", "four"} {
		id, err := s.Persist(ctx, []byte(d))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, s.Delete(ctx, ids[1]))

	recs, err := s.ListIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, ids[0], recs[0].ID)
	assert.Equal(t, ids[2], recs[1].ID)
	assert.Equal(t, ids[3], recs[2].ID)
	assert.Equal(t, "one", string(recs[0].Data))
	assert.Equal(t, "three", string(recs[1].Data))
	assert.Equal(t, "four", string(recs[2].Data))
}

func testUpdateReplacesData(t *testing.T, s persist.Store) {
	ctx := context.Background()
	id, err := s.Persist(ctx, []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, id, []byte("v2")))

	recs, err := s.ListIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)
	assert.Equal(t, "v2", string(recs[0].Data))
}

func testUpdateMissingFails(t *testing.T, s persist.Store) {
	assert.Error(t, s.Update(context.Background(), 987654, []byte("x")))
}

func testDeleteRemovesRecord(t *testing.T, s persist.Store) {
	ctx := context.Background()
	id, err := s.Persist(ctx, []byte("gone"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	recs, err := s.ListIncomplete(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func testDeleteMissingIsNoop(t *testing.T, s persist.Store) {
	assert.NoError(t, s.Delete(context.Background(), 123456))
}

func testDeleteAllEmptiesStore(t *testing.T, s persist.Store) {
	ctx := context.Background()
	for range 3 {
		_, err := s.Persist(ctx, []byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, s.DeleteAll(ctx))

	recs, err := s.ListIncomplete(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	id, err := s.Persist(ctx, []byte("after"))
	require.NoError(t, err)
	assert.Positive(t, id)
}

func testReturnedDataIsIsolated(t *testing.T, s persist.Store) {
	ctx := context.Background()
	data := []byte("original")
	_, err := s.Persist(ctx, data)
	require.NoError(t, err)
	data[0] = 'X'

	recs, err := s.ListIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "original", string(recs[0].Data))
}
