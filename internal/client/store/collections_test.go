package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() logging.Logger { return logging.Nop() }

func newCollections(t *testing.T) (*Collections, Store) {
	t.Helper()
	s := setupSQLite(t)
	return NewCollections(s, nopLogger()), s
}

func TestCollections_EmptyWhenAbsent(t *testing.T) {
	c, _ := newCollections(t)
	ctx := context.Background()

	d, err := c.Discoveries(ctx)
	require.NoError(t, err)
	assert.Empty(t, d)

	p, err := c.LastKnownPoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	on, err := c.ShaderEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	sess, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCollections_CorruptValueLoadsEmpty(t *testing.T) {
	c, s := newCollections(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, KeyDiscoveries, []byte(`{not json`)))
	require.NoError(t, s.Save(ctx, KeyScratchedPoints, []byte(`"oops"`)))

	d, err := c.Discoveries(ctx)
	require.NoError(t, err)
	assert.Empty(t, d)

	pts, err := c.ScratchPoints(ctx)
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestCollections_SaveWritesJSONArray(t *testing.T) {
	c, s := newCollections(t)
	ctx := context.Background()

	require.NoError(t, c.SaveScratchPoints(ctx, nil))
	raw, err := s.Load(ctx, KeyScratchedPoints)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	require.NoError(t, c.SaveScratchPoints(ctx, []models.ScratchPoint{{Latitude: 1, Longitude: 2}}))
	raw, err = s.Load(ctx, KeyScratchedPoints)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"latitude":1,"longitude":2}]`, string(raw))
}

func TestCollections_MutateErrorLeavesValue(t *testing.T) {
	c, _ := newCollections(t)
	ctx := context.Background()

	require.NoError(t, c.SaveDiscoveries(ctx, []models.Discovery{{UUID: "a"}}))

	boom := errors.New("boom")
	err := c.MutateDiscoveries(ctx, func(cur []models.Discovery) ([]models.Discovery, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	d, err := c.Discoveries(ctx)
	require.NoError(t, err)
	require.Len(t, d, 1)
}

func TestCollections_ConcurrentMutationsAreNotLost(t *testing.T) {
	c, _ := newCollections(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := c.MutatePendingScratch(ctx, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
				return append(cur, models.ScratchPoint{Latitude: float64(i)}), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	pts, err := c.PendingScratch(ctx)
	require.NoError(t, err)
	assert.Len(t, pts, n)
}

func TestCollections_PendingActionsDropInvalid(t *testing.T) {
	c, s := newCollections(t)
	ctx := context.Background()

	raw := `[{"type":"add","discovery":{"uuid":"a"}},{"type":"update"},{"type":"delete","uuid":"x"},{"type":"??","uuid":"y"}]`
	require.NoError(t, s.Save(ctx, KeyPendingActionDiscovery, []byte(raw)))

	actions, err := c.PendingActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "a", actions[0].TargetUUID())
	assert.Equal(t, "x", actions[1].TargetUUID())

	require.NoError(t, c.MutatePendingActions(ctx, func(cur []models.PendingAction) ([]models.PendingAction, error) {
		assert.Len(t, cur, 2)
		return append(cur, models.DeleteAction("z")), nil
	}))
	actions, err = c.PendingActions(ctx)
	require.NoError(t, err)
	assert.Len(t, actions, 3)
}

func TestCollections_Singletons(t *testing.T) {
	c, _ := newCollections(t)
	ctx := context.Background()

	require.NoError(t, c.SetLastKnownPoint(ctx, geo.Point{Latitude: 1, Longitude: 2}))
	p, err := c.LastKnownPoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, geo.Point{Latitude: 1, Longitude: 2}, *p)

	require.NoError(t, c.ClearLastKnownPoint(ctx))
	p, err = c.LastKnownPoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, c.SetShaderEnabled(ctx, true))
	on, err := c.ShaderEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, c.SetSession(ctx, models.Session{UserID: "u", AccessToken: "t"}))
	sess, err := c.Session(ctx)
	require.NoError(t, err)
	assert.True(t, sess.Valid())
	require.NoError(t, c.ClearSession(ctx))
	sess, err = c.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCollections_BoltBackend(t *testing.T) {
	c := NewCollections(setupBolt(t), nopLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.MutateDiscoveries(ctx, func(cur []models.Discovery) ([]models.Discovery, error) {
			return append(cur, models.Discovery{UUID: fmt.Sprint(i)}), nil
		}))
	}
	d, err := c.Discoveries(ctx)
	require.NoError(t, err)
	assert.Len(t, d, 3)
}
