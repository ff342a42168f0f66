// Package session implements the Session/Thread Manager (spec §4.1): it
// owns every live Session record, assigns external ids, serializes access
// per session, enforces TTL eviction, and bridges in-memory state to the
// optional Persistence Store. Grounded on the teacher's
// internal/memory/tracker.go SessionTracker (RWMutex-guarded map of active
// sessions) generalized from a single trajectory-recording map to the
// full get_or_create/append_step/evict_expired/snapshot contract.
package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"reasoning-orchestrator/internal/apperr"
	"reasoning-orchestrator/internal/storage"
	"reasoning-orchestrator/internal/types"
)

const (
	sessionIDPrefix = "sess_"
	threadIDPrefix  = "thr_"
)

// Manager is the sole live global the session registry comprises (spec
// §9): a mapping from external id to Handle, guarded by a short-lived
// lock used only for lookup/insert, never held across a suspension point.
type Manager struct {
	store storage.Store
	ttl   time.Duration
	maxConcurrent int

	mu       sync.RWMutex
	handles  map[string]*Handle

	// newMonitorState builds a fresh per-session MonitorState; kept
	// as a constructor hook so the monitor package's zero value (map
	// initialization) lives in one place.
	newMonitorState func() *types.MonitorState
}

// NewManager builds a Manager bridging to store. A nil newMonitorState
// falls back to an empty-but-initialized MonitorState.
func NewManager(store storage.Store, ttl time.Duration, maxConcurrent int, newMonitorState func() *types.MonitorState) *Manager {
	if newMonitorState == nil {
		newMonitorState = func() *types.MonitorState {
			return &types.MonitorState{
				Phases:       make(map[types.MonitoringEventKind]types.DetectorPhase),
				CoolingUntil: make(map[types.MonitoringEventKind]int),
			}
		}
	}
	return &Manager{
		store:           store,
		ttl:             ttl,
		maxConcurrent:   maxConcurrent,
		handles:         make(map[string]*Handle),
		newMonitorState: newMonitorState,
	}
}

// GetOrCreate implements spec §4.1's get_or_create: if id is supplied, it
// returns the live session of the same kind, else loads it from
// persistence, else fails with UnknownSession; a supplied id never creates
// a session. An empty id creates a new session with a fresh external id.
// Concurrent calls with the same id resolve to a single session (first
// writer wins), enforced by the registry lock.
func (m *Manager) GetOrCreate(kind types.SessionKind, query string, id string) (*Handle, error) {
	if id != "" {
		if h, ok := m.lookupLive(id); ok {
			h.Lock()
			sameKind := h.session.Kind == kind
			h.Unlock()
			if !sameKind {
				return nil, apperr.New(apperr.KindInvalidKind, fmt.Sprintf("session %s is kind %s, not %s", id, h.session.Kind, kind))
			}
			return h, nil
		}

		if loaded, err := m.loadFromPersistence(id); err == nil && loaded != nil {
			if loaded.Kind != kind {
				return nil, apperr.New(apperr.KindInvalidKind, fmt.Sprintf("session %s is kind %s, not %s", id, loaded.Kind, kind))
			}
			return m.register(loaded), nil
		} else if err != nil {
			log.Printf("[WARN] persistence lookup failed for session %s, treating as not found: %v", id, err)
		}

		return nil, apperr.New(apperr.KindUnknownSession, fmt.Sprintf("no session with continuation id %s", id))
	}

	if m.maxConcurrent > 0 && m.liveCount() >= m.maxConcurrent {
		return nil, apperr.New(apperr.KindOverloaded, "max concurrent sessions reached")
	}

	return m.createNew(kind, query)
}

func (m *Manager) createNew(kind types.SessionKind, query string) (*Handle, error) {
	now := time.Now()
	nonDurable := m.store == nil

	var externalID string
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		externalID = sessionIDPrefix + uuid.NewString()
		s := &types.Session{
			ID:        externalID,
			Kind:      kind,
			Query:     query,
			Status:    types.StatusActive,
			Monitor:   m.newMonitorState(),
			CreatedAt: now, LastAccessed: now,
		}

		if m.store == nil {
			s.NonDurable = true
			return m.register(s), nil
		}

		if err := m.store.CreateSession(s); err != nil {
			if apperr.Is(err, apperr.KindPersistenceUnavailable) {
				log.Printf("[WARN] persistence unavailable creating session, degrading to non-durable: %v", err)
				s.NonDurable = true
				return m.register(s), nil
			}
			// id collision: retry with a fresh id (spec §4.1 tie-break).
			lastErr = err
			continue
		}
		return m.register(s), nil
	}
	return nil, fmt.Errorf("allocate external session id after retries: %w", lastErr)
}

// Lookup resolves id to its handle regardless of kind, for read-only
// diagnostics (illumination_status) that aren't scoped to one tool.
func (m *Manager) Lookup(id string) (*Handle, error) {
	if h, ok := m.lookupLive(id); ok {
		return h, nil
	}
	loaded, err := m.loadFromPersistence(id)
	if err != nil {
		return nil, apperr.New(apperr.KindUnknownSession, fmt.Sprintf("no session with id %s", id))
	}
	if loaded == nil {
		return nil, apperr.New(apperr.KindUnknownSession, fmt.Sprintf("no session with id %s", id))
	}
	return m.register(loaded), nil
}

func (m *Manager) loadFromPersistence(id string) (*types.Session, error) {
	if m.store == nil {
		return nil, nil
	}
	s, err := m.store.GetSessionByExternalID(id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	if s.Monitor == nil {
		s.Monitor = m.newMonitorState()
	}
	return s, nil
}

func (m *Manager) lookupLive(id string) (*Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[id]
	return h, ok
}

func (m *Manager) liveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

func (m *Manager) register(s *types.Session) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.handles[s.ID]; ok {
		return existing
	}
	h := newHandle(s)
	m.handles[s.ID] = h
	return h
}

// AppendStep implements spec §4.1's append_step: allocates the next step
// number, records the step, and writes to persistence. Callers must hold
// h.Lock(); monitor/synthesis updates are driven by the caller (a
// reasoning tool), not by the Manager itself, since they differ per tool.
func (m *Manager) AppendStep(h *Handle, step *types.Step) (int, error) {
	s := h.session
	step.SessionID = s.ID
	step.Number = len(s.Steps) + 1
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now()
	}

	s.Steps = append(s.Steps, step)
	s.LastAccessed = time.Now()

	if m.store != nil && !s.NonDurable {
		if err := m.store.AppendStep(step); err != nil {
			log.Printf("[WARN] append_step persistence failed for session %s step %d: %v", s.ID, step.Number, err)
		}
	}
	return step.Number, nil
}

// EvictExpired removes sessions whose last-accessed exceeds TTL (spec
// §4.1). Completed sessions are eligible immediately.
func (m *Manager) EvictExpired() []string {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var evicted []string
	for id, h := range m.handles {
		h.Lock()
		expired := h.session.LastAccessed.Before(cutoff) || h.session.Status == types.StatusCompleted
		h.Unlock()
		if expired {
			delete(m.handles, id)
			evicted = append(evicted, id)
		}
	}
	m.mu.Unlock()

	if m.store != nil {
		if _, err := m.store.EvictByTTL(cutoff.Unix()); err != nil {
			log.Printf("[WARN] persistence evict_by_ttl failed: %v", err)
		}
	}
	return evicted
}

// SnapshotView is the read-only public view spec §4.1's snapshot
// operation returns.
type SnapshotView struct {
	SessionID        string
	Status           types.SessionStatus
	Steps            []*types.Step
	Synthesis        *types.SynthesisState
	RecentEvents     []*types.MonitoringEvent
}

// Snapshot returns a read-only copy of history, latest synthesis, and
// recent monitoring events, trimmed to tokenBudget (approximated as
// 4 characters per token, matching the teacher's rough token-estimation
// convention elsewhere in the pack). Callers must hold h.Lock().
func (m *Manager) Snapshot(h *Handle, tokenBudget int) *SnapshotView {
	s := h.session
	view := &SnapshotView{
		SessionID: s.ID,
		Status:    s.Status,
		Synthesis: s.Synthesis,
	}
	if s.Monitor != nil {
		view.RecentEvents = recentEvents(s.Monitor.Events, 10)
	}

	if tokenBudget <= 0 {
		view.Steps = s.Steps
		return view
	}

	budget := tokenBudget * 4
	used := 0
	var kept []*types.Step
	for i := len(s.Steps) - 1; i >= 0; i-- {
		cost := len(s.Steps[i].Content)
		if used+cost > budget && len(kept) > 0 {
			break
		}
		kept = append(kept, s.Steps[i])
		used += cost
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	view.Steps = kept
	return view
}

func recentEvents(events []*types.MonitoringEvent, limit int) []*types.MonitoringEvent {
	if len(events) <= limit {
		return events
	}
	return events[len(events)-limit:]
}

// NewThreadID mints an external thread id, used by confer on first
// invocation without a continuation_id.
func NewThreadID() string { return threadIDPrefix + uuid.NewString() }
