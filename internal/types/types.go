// Package types defines the core data structures for the reasoning
// orchestration core: sessions, steps, the evolving synthesis, insights,
// action items, bias detections, and monitoring events.
//
// These types are shared by every subsystem (session manager, monitor,
// synthesis engine, bias pipeline, reasoning tools) and are designed to
// support concurrent access through deep copying in the storage layer.
package types

import "time"

// SessionKind identifies which reasoning tool owns a session.
type SessionKind string

const (
	KindThread  SessionKind = "threaded-chat"
	KindPlanner SessionKind = "planner"
	KindTraced  SessionKind = "traced-reasoning"
	KindBiased  SessionKind = "biased-reasoning"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

// StepKind categorizes an appended unit of reasoning within a session.
type StepKind string

const (
	StepQuery        StepKind = "query"
	StepReasoning    StepKind = "reasoning"
	StepBiasAnalysis StepKind = "bias-analysis"
	StepSynthesis    StepKind = "synthesis"
	StepPlanning     StepKind = "planning"
	StepThought      StepKind = "thought"
)

// Priority levels for action items.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// BiasSeverity scales the impact of a detected cognitive bias.
type BiasSeverity string

const (
	SeverityNone     BiasSeverity = "none"
	SeverityLow      BiasSeverity = "low"
	SeverityMedium   BiasSeverity = "medium"
	SeverityHigh     BiasSeverity = "high"
	SeverityCritical BiasSeverity = "critical"
)

// MonitoringEventKind enumerates the Metacognitive Monitor's detectors.
type MonitoringEventKind string

const (
	EventCircularReasoning  MonitoringEventKind = "circular-reasoning"
	EventDistractorFixation MonitoringEventKind = "distractor-fixation"
	EventQualityDegradation MonitoringEventKind = "quality-degradation"
	EventSemanticDrift      MonitoringEventKind = "semantic-drift"
	EventPerplexitySpike    MonitoringEventKind = "perplexity-spike"
	EventMonitoringDegraded MonitoringEventKind = "monitoring-degraded"
)

// Session is a stateful, identified reasoning task spanning one or more
// tool invocations. Steps are immutable once appended; step numbers are
// strictly increasing starting at 1 with no gaps.
type Session struct {
	ID         string      `json:"id"` // external, opaque, type-prefixed
	InternalID int64       `json:"-"`
	Kind       SessionKind `json:"kind"`
	Query      string      `json:"query"`
	Steps      []*Step     `json:"steps"`
	Synthesis  *SynthesisState `json:"synthesis,omitempty"`
	Monitor    *MonitorState   `json:"-"`
	Thread     *Thread         `json:"thread,omitempty"`
	Status     SessionStatus   `json:"status"`
	NonDurable bool            `json:"non_durable,omitempty"`

	FailedSynthesisStreak int `json:"-"`

	// PendingPause tracks, per planner step_number, whether the first
	// "pause_for_deep_thinking" invocation has already happened (spec
	// §4.5): the second identical invocation proceeds to the model call.
	// Ephemeral: not persisted, reset on reload from the store.
	PendingPause map[int]bool `json:"-"`

	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// Step is an immutable, appended unit of reasoning within a Session.
type Step struct {
	SessionID  string                 `json:"session_id"`
	Number     int                    `json:"number"`
	Kind       StepKind               `json:"kind"`
	Content    string                 `json:"content"`
	RawOutput  string                 `json:"raw_output,omitempty"`
	ModelID    string                 `json:"model_id,omitempty"`
	Confidence float64                `json:"confidence"`
	Clarity    float64                `json:"clarity"`
	ElapsedMS  int64                  `json:"elapsed_ms"`
	TokenCount int                    `json:"token_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`

	// Lineage: a revision or branch references a prior step, never mutates it.
	RevisesStep   int    `json:"revises_step,omitempty"`
	BranchFromStep int   `json:"branch_from_step,omitempty"`
	BranchID      string `json:"branch_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SynthesisState is the session's versioned, distilled understanding.
type SynthesisState struct {
	Version              int           `json:"version"`
	TriggerStep           int           `json:"trigger_step"`
	CurrentUnderstanding  string        `json:"current_understanding"`
	Confidence            float64       `json:"confidence"`
	Clarity               float64       `json:"clarity"`
	Insights              []*Insight    `json:"insights"`
	Actions               []*ActionItem `json:"actions"`
	ReadyForDecision      bool          `json:"ready_for_decision"`
	RawDelta              string        `json:"raw_delta,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
}

// Insight is an atomic claim the synthesis has accrued.
type Insight struct {
	ID                string  `json:"id"`
	Text              string  `json:"text"`
	Confidence        float64 `json:"confidence"`
	SourceStep        int     `json:"source_step"`
	EvidenceSupported bool    `json:"evidence_supported"`
}

// ActionItem is a recommended next operation.
type ActionItem struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Priority  Priority `json:"priority"`
	Rationale string   `json:"rationale,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// BiasDetection is a verifier's structured verdict on a primary step.
type BiasDetection struct {
	StepNumber  int          `json:"step_number"`
	HasBias     bool         `json:"has_bias"`
	Severity    BiasSeverity `json:"severity"`
	BiasTypes   []string     `json:"bias_types,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Confidence  float64      `json:"confidence"`
	CreatedAt   time.Time    `json:"created_at"`
}

// MonitoringEvent records a metacognitive intervention trigger.
type MonitoringEvent struct {
	StepNumber   int                    `json:"step_number"`
	Kind         MonitoringEventKind    `json:"kind"`
	Severity     string                 `json:"severity"`
	Intervention string                 `json:"intervention,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// DetectorPhase is the per-detector state machine in the Monitor.
type DetectorPhase string

const (
	PhaseIdle    DetectorPhase = "idle"
	PhaseArmed   DetectorPhase = "armed"
	PhaseFiring  DetectorPhase = "firing"
	PhaseCooling DetectorPhase = "cooling"
)

// MonitorState is the Metacognitive Monitor's per-session state, owned
// exclusively by the Session it belongs to.
type MonitorState struct {
	Phases       map[MonitoringEventKind]DetectorPhase
	CoolingUntil map[MonitoringEventKind]int // step number cooling ends
	RecentTexts  []string                    // bounded ring of recent step texts
	RecentScores []float64                   // bounded ring of quality scores
	Events       []*MonitoringEvent
}

// Turn is a single message within a Thread (confer tool).
type Turn struct {
	Role       string    `json:"role"` // user | assistant | system
	Content    string    `json:"content"`
	ToolOrigin string    `json:"tool_origin,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Thread is a chat-oriented session, resumable by any tool via its id.
type Thread struct {
	ID             string                 `json:"id"`
	Turns          []*Turn                `json:"turns"`
	InitialContext map[string]interface{} `json:"initial_context,omitempty"`
}
