package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/courier/action"
	"github.com/xraph/courier/store/sqlite"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedStore(t *testing.T, path string, messages ...string) {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	def := echoDefinition()
	for _, msg := range messages {
		a, err := def.New(msg, action.WithKey("outbox"))
		require.NoError(t, err)
		data, err := action.JSONCodec{}.Encode(a.Snapshot())
		require.NoError(t, err)
		_, err = st.Persist(ctx, data)
		require.NoError(t, err)
	}
}

func TestRecordsList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "courier.db")
	seedStore(t, db, "hello", "world")

	out, err := execute(t, "--db", db, "--format", "json", "records", "list")
	require.NoError(t, err)

	var views []RecordView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "echo", views[0].Name)
	assert.Equal(t, "outbox", views[0].Key)
	assert.Equal(t, 3, views[0].RetryLimit)
	assert.Less(t, views[0].ID, views[1].ID)

	out, err = execute(t, "--db", db, "records", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "RETRIES")
	assert.Contains(t, out, "0/3")
}

func TestRecordsPurge(t *testing.T) {
	db := filepath.Join(t.TempDir(), "courier.db")
	seedStore(t, db, "stale")

	_, err := execute(t, "--db", db, "records", "purge")
	require.Error(t, err, "purge without --force must refuse")

	out, err := execute(t, "--db", db, "records", "purge", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "purged")

	out, err = execute(t, "--db", db, "records", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no persisted actions")
}

func TestRecordsPurgeLogsDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "courier.db")
	seedStore(t, db, "stale")

	cmd := NewRootCommand()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs([]string{"--db", db, "--log-level", "info", "records", "purge", "--force"})
	require.NoError(t, cmd.Execute())

	var entry struct {
		Msg string `json:"msg"`
		DB  string `json:"db"`
	}
	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		if err := json.Unmarshal(line, &entry); err == nil && entry.Msg == "persisted actions purged" {
			break
		}
		entry.Msg = ""
	}
	assert.Equal(t, "persisted actions purged", entry.Msg)
	assert.Equal(t, db, entry.DB)
}

func TestDemo(t *testing.T) {
	db := filepath.Join(t.TempDir(), "courier.db")

	out, err := execute(t, "--db", db, "demo", "--count", "2", "--offline", "20ms")
	require.NoError(t, err)
	assert.Equal(t, "message 1\nmessage 2\n", out)

	out, err = execute(t, "--db", db, "records", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no persisted actions")
}

func TestDemoAudit(t *testing.T) {
	db := filepath.Join(t.TempDir(), "courier.db")
	cmd := NewRootCommand()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs([]string{"--db", db, "demo", "--count", "1", "--audit"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "message 1\n", out.String())
	assert.Contains(t, logs.String(), `"action":"action.persisted"`)
	assert.Contains(t, logs.String(), `"action":"action.completed"`)
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "records", "list")
	assert.ErrorContains(t, err, "invalid format")

	_, err = execute(t, "--log-level", "loud", "records", "list")
	assert.ErrorContains(t, err, "invalid log level")
}
