package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ReportAndSnapshot(t *testing.T) {
	type call struct {
		phase    string
		cur, tot int
	}
	var calls []call
	s := New(context.Background(), func(phase string, cur, tot int) {
		calls = append(calls, call{phase, cur, tot})
	})
	defer s.Done()

	s.Report("parse", 1, 2)
	s.Report("parse", 2, 2)

	assert.Equal(t, []call{{"parse", 1, 2}, {"parse", 2, 2}}, calls)
	phase, cur, tot := s.Snapshot()
	assert.Equal(t, "parse", phase)
	assert.Equal(t, 2, cur)
	assert.Equal(t, 2, tot)
}

func TestSession_Cancel(t *testing.T) {
	s := Background()
	require.False(t, s.Cancelled())
	require.NoError(t, s.Check())

	s.Cancel()
	assert.True(t, s.Cancelled())
	assert.ErrorIs(t, s.Check(), ErrCancelled)
	assert.Error(t, s.Context().Err())
}

func TestSession_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := New(parent, nil)
	defer s.Done()

	cancel()
	assert.True(t, s.Cancelled())
}

func TestSession_IndependentSessions(t *testing.T) {
	a := Background()
	b := Background()
	a.Cancel()
	assert.True(t, a.Cancelled())
	assert.False(t, b.Cancelled())
	b.Done()
}
