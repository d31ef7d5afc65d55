package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pongduel-go/internal/dependencies/mocks"
	"github.com/mcoot/pongduel-go/internal/engine"
	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/testutil"
)

func newTestSession(id model.MatchID, a, b model.PlayerID) *Session {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewSession(
		id,
		model.ModeClassic,
		Participant{Player: model.Player{ID: a}, Conn: &fakeSender{}},
		Participant{Player: model.Player{ID: b}, Conn: &fakeSender{}},
		engine.NewScoreWatcher(11),
		clk,
		testutil.NopLogger(),
	)
}

func TestRegistryAddAndLookup(t *testing.T) {
	r := NewRegistry(testutil.NopLogger())
	s := newTestSession("m_1", 1, 2)

	require.NoError(t, r.Add(s))

	got, ok := r.Get("m_1")
	require.True(t, ok)
	assert.Same(t, s, got)

	byA, ok := r.GetByParticipant(1)
	require.True(t, ok)
	byB, ok2 := r.GetByParticipant(2)
	require.True(t, ok2)
	assert.Same(t, byA, byB)
}

func TestRegistryRejectsDoublePairing(t *testing.T) {
	r := NewRegistry(testutil.NopLogger())
	require.NoError(t, r.Add(newTestSession("m_1", 1, 2)))

	err := r.Add(newTestSession("m_2", 2, 3))
	assert.ErrorIs(t, err, model.ErrPlayerInMatch)

	// The failed add must not leave partial mappings
	_, ok := r.Get("m_2")
	assert.False(t, ok)
	_, ok = r.GetByParticipant(3)
	assert.False(t, ok)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(testutil.NopLogger())
	require.NoError(t, r.Add(newTestSession("m_1", 1, 2)))

	r.Remove("m_1")
	_, ok := r.Get("m_1")
	assert.False(t, ok)
	_, ok = r.GetByParticipant(1)
	assert.False(t, ok)
	_, ok = r.GetByParticipant(2)
	assert.False(t, ok)

	// Idempotent
	r.Remove("m_1")
	assert.Equal(t, 0, r.Len())

	// Participants can be paired again after removal
	require.NoError(t, r.Add(newTestSession("m_2", 1, 2)))
}

func TestRegistryUnknownLookups(t *testing.T) {
	r := NewRegistry(testutil.NopLogger())

	_, ok := r.Get("m_missing")
	assert.False(t, ok)
	_, ok = r.GetByParticipant(7)
	assert.False(t, ok)
}
