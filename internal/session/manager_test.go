package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reasoning-orchestrator/internal/apperr"
	"reasoning-orchestrator/internal/storage"
	"reasoning-orchestrator/internal/types"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemoryStore(), time.Hour, 0, nil)
}

func TestGetOrCreate_NewSessionGetsExternalID(t *testing.T) {
	m := newTestManager()
	h, err := m.GetOrCreate(types.KindPlanner, "build a cache", "")
	require.NoError(t, err)
	h.Lock()
	defer h.Unlock()
	assert.NotEmpty(t, h.Session().ID)
	assert.Equal(t, types.KindPlanner, h.Session().Kind)
}

func TestGetOrCreate_SameIDReturnsSameHandle(t *testing.T) {
	m := newTestManager()
	h1, err := m.GetOrCreate(types.KindThread, "q", "")
	require.NoError(t, err)
	id := h1.Session().ID

	h2, err := m.GetOrCreate(types.KindThread, "q", id)
	require.NoError(t, err)
	assert.Same(t, h1, h2, "expected the same handle for concurrent/repeated GetOrCreate with the same id")
}

func TestGetOrCreate_WrongKindFails(t *testing.T) {
	m := newTestManager()
	h, _ := m.GetOrCreate(types.KindPlanner, "q", "")
	id := h.Session().ID

	_, err := m.GetOrCreate(types.KindTraced, "q", id)
	assert.True(t, apperr.Is(err, apperr.KindInvalidKind), "expected InvalidKind error, got %v", err)
}

func TestGetOrCreate_UnknownIDFails(t *testing.T) {
	m := newTestManager()
	_, err := m.GetOrCreate(types.KindPlanner, "q", "sess_does-not-exist")
	assert.True(t, apperr.Is(err, apperr.KindUnknownSession), "expected UnknownSession error, got %v", err)
}

func TestGetOrCreate_OverloadedAtCap(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), time.Hour, 1, nil)
	_, err := m.GetOrCreate(types.KindPlanner, "q1", "")
	require.NoError(t, err)

	_, err = m.GetOrCreate(types.KindPlanner, "q2", "")
	assert.True(t, apperr.Is(err, apperr.KindOverloaded), "expected Overloaded error at cap, got %v", err)
}

func TestAppendStep_AllocatesSequentialNumbers(t *testing.T) {
	m := newTestManager()
	h, _ := m.GetOrCreate(types.KindTraced, "q", "")
	h.Lock()
	defer h.Unlock()

	n1, err := m.AppendStep(h, &types.Step{Kind: types.StepQuery, Content: "q"})
	require.NoError(t, err)
	n2, err := m.AppendStep(h, &types.Step{Kind: types.StepReasoning, Content: "r"})
	require.NoError(t, err)

	assert.Equal(t, 1, n1)
	assert.Equal(t, 2, n2)
	assert.Len(t, h.Session().Steps, 2)
}

func TestEvictExpired_RemovesStaleSessions(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), time.Millisecond, 0, nil)
	h, _ := m.GetOrCreate(types.KindPlanner, "q", "")
	id := h.Session().ID

	time.Sleep(5 * time.Millisecond)
	evicted := m.EvictExpired()

	assert.Contains(t, evicted, id)

	_, ok := m.lookupLive(id)
	assert.False(t, ok, "expected evicted session to no longer be live")
}

func TestEvictExpired_KeepsFreshSessions(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), time.Hour, 0, nil)
	h, _ := m.GetOrCreate(types.KindPlanner, "q", "")
	id := h.Session().ID

	m.EvictExpired()

	_, ok := m.lookupLive(id)
	assert.True(t, ok, "expected a fresh session to survive eviction")
}

func TestEvictExpired_EvictsCompletedImmediately(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), time.Hour, 0, nil)
	h, _ := m.GetOrCreate(types.KindPlanner, "q", "")
	h.Lock()
	h.Session().Status = types.StatusCompleted
	id := h.Session().ID
	h.Unlock()

	m.EvictExpired()

	_, ok := m.lookupLive(id)
	assert.False(t, ok, "expected a completed session to be evicted immediately regardless of TTL")
}

func TestSnapshot_TrimsToTokenBudget(t *testing.T) {
	m := newTestManager()
	h, _ := m.GetOrCreate(types.KindTraced, "q", "")
	h.Lock()
	for i := 0; i < 5; i++ {
		m.AppendStep(h, &types.Step{Kind: types.StepReasoning, Content: "0123456789"}) // 10 chars each
	}
	// Budget of 1 token ~= 4 chars: only the newest step should survive.
	view := m.Snapshot(h, 1)
	h.Unlock()

	require.Len(t, view.Steps, 1)
	assert.Equal(t, 5, view.Steps[0].Number, "expected the newest step (5) to be kept")
}

func TestSnapshot_NoBudgetReturnsAllSteps(t *testing.T) {
	m := newTestManager()
	h, _ := m.GetOrCreate(types.KindTraced, "q", "")
	h.Lock()
	for i := 0; i < 3; i++ {
		m.AppendStep(h, &types.Step{Kind: types.StepReasoning, Content: "x"})
	}
	view := m.Snapshot(h, 0)
	h.Unlock()

	assert.Len(t, view.Steps, 3)
}

func TestLookup_FindsLiveSession(t *testing.T) {
	m := newTestManager()
	h, _ := m.GetOrCreate(types.KindBiased, "q", "")
	id := h.Session().ID

	found, err := m.Lookup(id)
	require.NoError(t, err)
	assert.Same(t, h, found, "expected Lookup to return the same live handle")
}

func TestLookup_UnknownIDFails(t *testing.T) {
	m := newTestManager()
	_, err := m.Lookup("sess_nope")
	assert.True(t, apperr.Is(err, apperr.KindUnknownSession), "expected UnknownSession, got %v", err)
}

func TestCreateNew_DegradesToInMemoryWithoutStore(t *testing.T) {
	m := NewManager(nil, time.Hour, 0, nil)
	h, err := m.GetOrCreate(types.KindPlanner, "q", "")
	require.NoError(t, err)
	h.Lock()
	defer h.Unlock()
	assert.True(t, h.Session().NonDurable, "expected a session created without a store to be marked non-durable")
}
