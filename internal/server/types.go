package server

import (
	"reasoning-orchestrator/internal/types"
)

// ToolResponse is the shared response contract every tool returns (spec
// §4.5): {text, session_id, synthesis_snapshot?, interventions?,
// continuation_id?}.
type ToolResponse struct {
	Text              string             `json:"text"`
	SessionID         string             `json:"session_id"`
	ContinuationID    string             `json:"continuation_id,omitempty"`
	SynthesisSnapshot *SynthesisSnapshot `json:"synthesis_snapshot,omitempty"`
	Interventions     []string           `json:"interventions,omitempty"`
	Status            string             `json:"status,omitempty"`
}

// SynthesisSnapshot is the wire shape of a SynthesisState, trimmed to
// what a tool caller needs to display.
type SynthesisSnapshot struct {
	Version              int                `json:"version"`
	CurrentUnderstanding string             `json:"current_understanding"`
	Confidence           float64            `json:"confidence"`
	Clarity              float64            `json:"clarity"`
	Insights             []*types.Insight   `json:"insights"`
	Actions              []*types.ActionItem `json:"actions"`
	ReadyForDecision     bool               `json:"ready_for_decision"`
}

func snapshotOf(s *types.SynthesisState) *SynthesisSnapshot {
	if s == nil {
		return nil
	}
	return &SynthesisSnapshot{
		Version:              s.Version,
		CurrentUnderstanding: s.CurrentUnderstanding,
		Confidence:           s.Confidence,
		Clarity:              s.Clarity,
		Insights:             s.Insights,
		Actions:              s.Actions,
		ReadyForDecision:     s.ReadyForDecision,
	}
}

func interventionTexts(events []*types.MonitoringEvent) []string {
	var out []string
	for _, ev := range events {
		if ev.Intervention != "" {
			out = append(out, ev.Intervention)
		}
	}
	return out
}
