package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBolt(t *testing.T) *BoltStore {
	t.Helper()
	b, err := OpenBolt(filepath.Join(t.TempDir(), "test.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBolt_SaveLoadRemove(t *testing.T) {
	b := setupBolt(t)
	ctx := context.Background()

	v, err := b.Load(ctx, KeyDiscoveries)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, b.Save(ctx, KeyDiscoveries, []byte(`[]`)))
	require.NoError(t, b.Save(ctx, KeyDiscoveries, []byte(`[{"uuid":"a"}]`)))

	v, err = b.Load(ctx, KeyDiscoveries)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"uuid":"a"}]`), v)

	require.NoError(t, b.Remove(ctx, KeyDiscoveries))
	v, err = b.Load(ctx, KeyDiscoveries)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBolt_CancelledContext(t *testing.T) {
	b := setupBolt(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, b.Save(ctx, "k", []byte("v")), context.Canceled)
	_, err := b.Load(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, b.Remove(ctx, "k"), context.Canceled)
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, BackendSQLite, dir, nopLogger())
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, BackendBolt, dir, nopLogger())
	require.NoError(t, err)
	require.IsType(t, &BoltStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "redis", dir, nopLogger())
	require.ErrorIs(t, err, ErrUnknownBackend)
}
