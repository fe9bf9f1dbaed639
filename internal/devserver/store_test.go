package devserver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	// Originals
	_, err := s.GetOriginal(ctx, "o1")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.PutOriginal(ctx, "o1", []byte(`{"destination":"Hue"}`)))
	require.NoError(t, s.PutOriginal(ctx, "o1", []byte(`{"destination":"Hue v2"}`)))
	body, err := s.GetOriginal(ctx, "o1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"destination":"Hue v2"}`, string(body))

	// Customized copies
	_, err = s.FindCustomized(ctx, "alice", "o1")
	require.ErrorIs(t, err, ErrNotFound)

	c := &Customized{ID: "c1", OriginalID: "o1", Owner: "alice", Body: []byte(`{"days":[]}`)}
	require.NoError(t, s.PutCustomized(ctx, c))
	got, err := s.FindCustomized(ctx, "alice", "o1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	_, err = s.FindCustomized(ctx, "bob", "o1")
	require.ErrorIs(t, err, ErrNotFound)

	c.Body = []byte(`{"days":[],"summary":"edited"}`)
	c.Owner = "mallory" // ownership is fixed at creation
	require.NoError(t, s.PutCustomized(ctx, c))
	got, err = s.GetCustomized(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
	assert.JSONEq(t, `{"days":[],"summary":"edited"}`, string(got.Body))

	_, err = s.GetCustomized(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRebind(t *testing.T) {
	pg := &sqlStore{dollarPH: true}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &sqlStore{}
	assert.Equal(t, "WHERE x = ?", lite.rebind("WHERE x = ?"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", "")
	assert.Error(t, err)
	_, err = OpenPostgres(context.Background(), "")
	assert.Error(t, err)
}
