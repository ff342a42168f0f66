// Package monitor implements the Metacognitive Monitor (spec §4.2): an
// online analyzer, one instance's worth of state per reasoning session,
// that consumes each produced reasoning text and emits zero or more
// MonitoringEvents. Detectors are built the way the teacher's
// internal/metacognition/bias_detection.go builds its "checkers": small
// functions each returning an optional event, invoked in sequence from
// one Analyze entry point.
package monitor

import (
	"fmt"
	"time"

	"reasoning-orchestrator/internal/config"
	"reasoning-orchestrator/internal/similarity"
	"reasoning-orchestrator/internal/types"
)

// Monitor runs the five detectors over one session's MonitorState.
type Monitor struct {
	cfg      config.MonitorConfig
	provider similarity.Provider
}

// New builds a Monitor. provider supplies the monotone similarity score
// spec §9's open question leaves implementation-defined.
func New(cfg config.MonitorConfig, provider similarity.Provider) *Monitor {
	return &Monitor{cfg: cfg, provider: provider}
}

// Input bundles what a detector needs about the step just produced.
type Input struct {
	StepNumber       int
	OriginalQuery    string
	Text             string
	QualityScore     float64 // self-reported confidence or a length/agreement proxy
	AttentionEntropy float64 // 0 means "not provided by the Gateway"
	HasEntropy       bool

	// HasIndexedNearest, IndexedNearestSimilarity, and IndexedNearestOffset
	// carry an optional cross-step vector-index lookup (the chromem-go
	// StepIndex) that can see further back than MonitorState.RecentTexts'
	// bounded ring. When present, circularReasoning takes whichever of the
	// indexed match and the in-memory window scan is more similar.
	HasIndexedNearest        bool
	IndexedNearestSimilarity float64
	IndexedNearestOffset     int
}

// Analyze runs every detector in sequence against state, mutating it in
// place (ring buffers, phase transitions) and returning any events fired
// this step. It never aborts. Detectors have no failure path of their
// own: Analyze never emits a MonitoringDegraded event.
func (m *Monitor) Analyze(state *types.MonitorState, in Input) []*types.MonitoringEvent {
	if state.Phases == nil {
		state.Phases = make(map[types.MonitoringEventKind]types.DetectorPhase)
	}
	if state.CoolingUntil == nil {
		state.CoolingUntil = make(map[types.MonitoringEventKind]int)
	}

	var events []*types.MonitoringEvent
	detectors := []func(*types.MonitorState, Input) *types.MonitoringEvent{
		m.semanticDrift,
		m.qualityDegradation,
		m.circularReasoning,
		m.distractorFixation,
		m.attentionEntropy,
	}
	for _, d := range detectors {
		if ev := d(state, in); ev != nil {
			ev.CreatedAt = time.Now()
			events = append(events, ev)
		}
	}

	state.RecentTexts = appendBounded(state.RecentTexts, in.Text, m.cfg.CircularWindow)
	state.RecentScores = appendBoundedFloat(state.RecentScores, in.QualityScore, m.cfg.DegradationWindow)
	state.Events = append(state.Events, events...)
	return events
}

// advance runs one detector's state machine. Semantic drift (spec §4.2
// point 1) requires two consecutive triggers before firing: Idle ->
// Armed on the first trigger, Armed -> Firing on the second. The other
// four detectors define no such consecutive-trigger requirement (spec
// §4.2 points 2-5) and fire immediately on a single trigger. Every
// detector then cools for CoolingSteps, ignoring further triggers.
func (m *Monitor) advance(state *types.MonitorState, kind types.MonitoringEventKind, stepNumber int, triggered bool) bool {
	if until, cooling := state.CoolingUntil[kind]; cooling && stepNumber <= until {
		return false
	}
	if !triggered {
		if state.Phases[kind] != types.PhaseIdle {
			state.Phases[kind] = types.PhaseIdle
		}
		return false
	}

	if kind == types.EventSemanticDrift {
		if phase := state.Phases[kind]; phase == types.PhaseIdle || phase == "" {
			state.Phases[kind] = types.PhaseArmed
			return false
		}
	}

	state.Phases[kind] = types.PhaseCooling
	state.CoolingUntil[kind] = stepNumber + m.cfg.CoolingSteps
	return true
}

func appendBounded(items []string, next string, window int) []string {
	if window <= 0 {
		window = 5
	}
	items = append(items, next)
	if len(items) > window {
		items = items[len(items)-window:]
	}
	return items
}

func appendBoundedFloat(items []float64, next float64, window int) []float64 {
	if window <= 0 {
		window = 3
	}
	items = append(items, next)
	if len(items) > window {
		items = items[len(items)-window:]
	}
	return items
}

func interventionFor(kind types.MonitoringEventKind, stepNumber int, extra string) string {
	switch kind {
	case types.EventSemanticDrift:
		return fmt.Sprintf("You appear to be drifting from the original goal; reconnect step %d to the original query before continuing.", stepNumber)
	case types.EventQualityDegradation:
		return "Recent steps show declining quality; slow down and re-derive the key claim from first principles."
	case types.EventCircularReasoning:
		return fmt.Sprintf("You appear to be restating %s; introduce a new angle or consider an alternative hypothesis.", extra)
	case types.EventDistractorFixation:
		return "You are fixating on a tangent; return to the original query's actual question."
	default:
		return "Reconsider the current approach."
	}
}
