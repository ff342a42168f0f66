// Package storage provides in-memory and SQLite-backed persistence for
// the reasoning orchestration core.
//
// This file implements thread-safe in-memory storage using a read-write
// mutex and a deep-copy strategy to prevent data races. All retrieval
// methods return deep copies of stored data so external modification of
// the returned value never mutates internal state.
package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"reasoning-orchestrator/internal/types"
)

// MemoryStore implements in-memory storage with thread-safe operations.
// All Get methods return deep copies to prevent external mutation of
// internal state.
type MemoryStore struct {
	mu sync.RWMutex

	sessions map[string]*types.Session
	threads  map[string]*types.Thread

	// Ordered slice for deterministic pagination (newest first).
	sessionsOrdered []*types.Session
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*types.Session),
		threads:  make(map[string]*types.Thread),
	}
}

// CreateSession stores a new session. Idempotent on ID: storing twice
// with the same ID is a no-op on the second call (spec §8's
// append_step idempotence extends to session creation).
func (s *MemoryStore) CreateSession(session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return nil
	}

	stored := copySession(session)
	s.sessions[session.ID] = stored
	s.sessionsOrdered = append(s.sessionsOrdered, stored)
	sort.Slice(s.sessionsOrdered, func(i, j int) bool {
		return s.sessionsOrdered[i].CreatedAt.After(s.sessionsOrdered[j].CreatedAt)
	})
	return nil
}

// GetSessionByExternalID retrieves a session by its external id.
func (s *MemoryStore) GetSessionByExternalID(id string) (*types.Session, error) {
	s.mu.RLock()
	session, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return copySession(session), nil
}

// TouchSession updates a session's last-accessed timestamp.
func (s *MemoryStore) TouchSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return fmt.Errorf("session not found: %s", id)
	}
	session.LastAccessed = time.Now()
	return nil
}

// MarkSessionStatus updates a session's status.
func (s *MemoryStore) MarkSessionStatus(id string, status types.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return fmt.Errorf("session not found: %s", id)
	}
	session.Status = status
	if status == types.StatusCompleted || status == types.StatusFailed {
		session.CompletedAt = time.Now()
	}
	return nil
}

// EvictByTTL removes sessions whose last-accessed time is at or before
// cutoff (a Unix timestamp). Returns the external ids evicted.
func (s *MemoryStore) EvictByTTL(cutoff int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	remaining := s.sessionsOrdered[:0]
	for _, session := range s.sessionsOrdered {
		if session.LastAccessed.Unix() <= cutoff {
			evicted = append(evicted, session.ID)
			delete(s.sessions, session.ID)
			continue
		}
		remaining = append(remaining, session)
	}
	s.sessionsOrdered = remaining
	return evicted, nil
}

// AppendStep appends a step to a session. Idempotent on (session,
// step_number): re-appending an already-present step number is a no-op.
func (s *MemoryStore) AppendStep(step *types.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[step.SessionID]
	if !exists {
		return fmt.Errorf("session not found: %s", step.SessionID)
	}
	for _, existing := range session.Steps {
		if existing.Number == step.Number {
			return nil
		}
	}
	session.Steps = append(session.Steps, copyStep(step))
	return nil
}

// ListSteps returns all steps for a session in step-number order.
func (s *MemoryStore) ListSteps(sessionID string) ([]*types.Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	out := make([]*types.Step, len(session.Steps))
	for i, step := range session.Steps {
		out[i] = copyStep(step)
	}
	return out, nil
}

// AppendSynthesisVersion stores a new synthesis version for a session.
func (s *MemoryStore) AppendSynthesisVersion(sessionID string, state *types.SynthesisState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	session.Synthesis = copySynthesis(state)
	return nil
}

// AppendInsight appends an insight to the session's current synthesis.
func (s *MemoryStore) AppendInsight(sessionID string, insight *types.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	if session.Synthesis == nil {
		return fmt.Errorf("session has no synthesis state: %s", sessionID)
	}
	session.Synthesis.Insights = append(session.Synthesis.Insights, insight)
	return nil
}

// AppendAction appends an action item to the session's current synthesis.
func (s *MemoryStore) AppendAction(sessionID string, action *types.ActionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	if session.Synthesis == nil {
		return fmt.Errorf("session has no synthesis state: %s", sessionID)
	}
	session.Synthesis.Actions = append(session.Synthesis.Actions, action)
	return nil
}

// LatestSynthesis returns the session's current synthesis version.
func (s *MemoryStore) LatestSynthesis(sessionID string) (*types.SynthesisState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return copySynthesis(session.Synthesis), nil
}

// AppendBiasDetection stores a bias detection as step metadata.
func (s *MemoryStore) AppendBiasDetection(sessionID string, detection *types.BiasDetection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	for _, step := range session.Steps {
		if step.Number == detection.StepNumber {
			if step.Metadata == nil {
				step.Metadata = make(map[string]interface{})
			}
			step.Metadata["bias_detection"] = detection
			return nil
		}
	}
	return fmt.Errorf("step not found: session=%s step=%d", sessionID, detection.StepNumber)
}

// AppendMonitoringEvent appends a monitoring event to the session's
// monitor state.
func (s *MemoryStore) AppendMonitoringEvent(sessionID string, event *types.MonitoringEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	if session.Monitor == nil {
		session.Monitor = &types.MonitorState{
			Phases:       make(map[types.MonitoringEventKind]types.DetectorPhase),
			CoolingUntil: make(map[types.MonitoringEventKind]int),
		}
	}
	session.Monitor.Events = append(session.Monitor.Events, event)
	return nil
}

// RecentMonitoringEvents returns up to limit most recent monitoring
// events for a session, newest first.
func (s *MemoryStore) RecentMonitoringEvents(sessionID string, limit int) ([]*types.MonitoringEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if session.Monitor == nil {
		return nil, nil
	}
	events := session.Monitor.Events
	start := 0
	if limit > 0 && len(events) > limit {
		start = len(events) - limit
	}
	out := make([]*types.MonitoringEvent, len(events)-start)
	for i, e := range events[start:] {
		out[i] = e
	}
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// AppendChatMessage appends a turn to a thread, creating it if absent.
func (s *MemoryStore) AppendChatMessage(threadID string, turn *types.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, exists := s.threads[threadID]
	if !exists {
		thread = &types.Thread{ID: threadID}
		s.threads[threadID] = thread
	}
	thread.Turns = append(thread.Turns, turn)
	return nil
}

// GetThread retrieves a thread by id.
func (s *MemoryStore) GetThread(threadID string) (*types.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, exists := s.threads[threadID]
	if !exists {
		return nil, fmt.Errorf("thread not found: %s", threadID)
	}
	return copyThread(thread), nil
}

// GetMetrics returns aggregate usage metrics.
func (s *MemoryStore) GetMetrics() *Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := &Metrics{
		SessionsByKind:   make(map[string]int),
		SessionsByStatus: make(map[string]int),
	}
	for _, session := range s.sessions {
		m.TotalSessions++
		m.TotalSteps += len(session.Steps)
		m.SessionsByKind[string(session.Kind)]++
		m.SessionsByStatus[string(session.Status)]++
	}
	return m
}
