package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/courier/persist"
	"github.com/xraph/courier/store/sqlite"
	"github.com/xraph/courier/store/storetest"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persist.Store {
		return openStore(t, filepath.Join(t.TempDir(), "courier.db"))
	})
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "courier.db")

	first, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	id, err := first.Persist(ctx, []byte(`{"name":"durable"}`))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openStore(t, path)
	recs, err := second.ListIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)
	assert.JSONEq(t, `{"name":"durable"}`, string(recs[0].Data))
}

func TestIDsNotReusedAfterDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "courier.db"))

	first, err := s.Persist(ctx, []byte("a"))
	require.NoError(t, err)
	require.NoError(t, s.DeleteAll(ctx))

	second, err := s.Persist(ctx, []byte("b"))
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestNewFromDB_DoesNotCloseCallerHandle(t *testing.T) {
	ctx := context.Background()
	owner := openStore(t, filepath.Join(t.TempDir(), "courier.db"))

	borrowed := sqlite.NewFromDB(owner.DB())
	require.NoError(t, borrowed.Migrate(ctx))
	require.NoError(t, borrowed.Close())
	assert.NoError(t, owner.Ping(ctx))
}
