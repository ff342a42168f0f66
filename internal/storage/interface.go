package storage

import "reasoning-orchestrator/internal/types"

// SessionRepository manages session persistence and retrieval (spec §6:
// create-session, fetch-session-by-external-id, evict-by-ttl).
type SessionRepository interface {
	CreateSession(session *types.Session) error
	GetSessionByExternalID(id string) (*types.Session, error)
	TouchSession(id string) error
	MarkSessionStatus(id string, status types.SessionStatus) error
	EvictByTTL(cutoff int64) (evicted []string, err error)
}

// StepRepository manages step persistence (append-step, idempotent on
// (session, step_number)).
type StepRepository interface {
	AppendStep(step *types.Step) error
	ListSteps(sessionID string) ([]*types.Step, error)
}

// SynthesisRepository manages synthesis version persistence.
type SynthesisRepository interface {
	AppendSynthesisVersion(sessionID string, state *types.SynthesisState) error
	AppendInsight(sessionID string, insight *types.Insight) error
	AppendAction(sessionID string, action *types.ActionItem) error
	LatestSynthesis(sessionID string) (*types.SynthesisState, error)
}

// BiasRepository manages bias detection persistence.
type BiasRepository interface {
	AppendBiasDetection(sessionID string, detection *types.BiasDetection) error
}

// MonitoringRepository manages monitoring event persistence.
type MonitoringRepository interface {
	AppendMonitoringEvent(sessionID string, event *types.MonitoringEvent) error
	RecentMonitoringEvents(sessionID string, limit int) ([]*types.MonitoringEvent, error)
}

// ThreadRepository manages chat-turn persistence for threaded-chat.
type ThreadRepository interface {
	AppendChatMessage(threadID string, turn *types.Turn) error
	GetThread(threadID string) (*types.Thread, error)
}

// Metrics summarizes aggregate usage, surfaced by illumination_status.
type Metrics struct {
	TotalSessions    int            `json:"total_sessions"`
	TotalSteps       int            `json:"total_steps"`
	SessionsByKind   map[string]int `json:"sessions_by_kind"`
	SessionsByStatus map[string]int `json:"sessions_by_status"`
}

// MetricsProvider provides system metrics.
type MetricsProvider interface {
	GetMetrics() *Metrics
}

// Store combines all repository interfaces for unified access. All
// operations are idempotent on their primary keys (spec §6). The store
// is optional: its absence (or a construction failure) degrades the
// core to in-memory, non-durable mode without changing externally
// observable behavior for the common path (spec §8 scenario 6).
type Store interface {
	SessionRepository
	StepRepository
	SynthesisRepository
	BiasRepository
	MonitoringRepository
	ThreadRepository
	MetricsProvider
}

var _ Store = (*MemoryStore)(nil)
