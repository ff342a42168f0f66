// Package synthesis implements the Synthesis Engine (spec §4.4): a
// versioned, append-style record of current understanding, insights, and
// action items, updated after each reasoning step by merging a
// structured delta parsed from model output. Clamping/weighted-average
// helpers are grounded on the teacher's internal/validation/calibration.go
// clamp-to-[0,1] style; no direct teacher equivalent exists for the merge
// algorithm itself, which is built fresh from spec.md §4.4.
package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"reasoning-orchestrator/internal/apperr"
)

// Delta is the documented schema a model's structured output is parsed
// into (spec §4.4 step 1).
type Delta struct {
	UnderstandingUpdate string       `json:"understanding_update"`
	NewInsights         []DeltaInsight `json:"new_insights"`
	ConfirmedInsights   []string     `json:"confirmed_insights"` // matched by text
	InvalidatedInsights []string     `json:"invalidated_insights"`
	NewActions          []DeltaAction `json:"new_actions"`
	UpdatedConfidence    float64     `json:"updated_confidence"`
	UpdatedClarity       float64     `json:"updated_clarity"`
	ReadyForDecision     bool        `json:"ready_for_decision"`
}

// DeltaInsight is one entry of Delta.NewInsights.
type DeltaInsight struct {
	Text              string  `json:"text"`
	Confidence        float64 `json:"confidence"`
	EvidenceSupported bool    `json:"evidence_supported"`
}

// DeltaAction is one entry of Delta.NewActions.
type DeltaAction struct {
	Text      string   `json:"text"`
	Priority  string   `json:"priority"`
	Rationale string   `json:"rationale"`
	DependsOn []string `json:"depends_on"`
}

// ParseDelta parses a model's raw text as a Delta. Per spec §9, parse
// failures are first-class recoverable errors, never crashes: callers
// receive a *apperr.Error(KindSynthesisParseFailure) and keep the prior
// SynthesisState. The model is expected to emit a single JSON object,
// possibly fenced in markdown; fencing is stripped before parsing.
func ParseDelta(raw string) (*Delta, error) {
	body := stripFence(raw)

	var d Delta
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, apperr.Wrap(apperr.KindSynthesisParseFailure, err, "parse synthesis delta")
	}
	for _, ins := range d.NewInsights {
		if ins.Text == "" {
			return nil, apperr.New(apperr.KindSynthesisParseFailure, "new_insights entry has empty text")
		}
	}
	for _, act := range d.NewActions {
		if act.Text == "" {
			return nil, apperr.New(apperr.KindSynthesisParseFailure, "new_actions entry has empty text")
		}
	}
	return &d, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	const fence = "```"
	if !strings.HasPrefix(s, fence) {
		return s
	}
	rest := s[len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, fence); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// String renders a Delta for error/logging context.
func (d *Delta) String() string {
	return fmt.Sprintf("Delta{understanding_update=%q, new_insights=%d, new_actions=%d}", d.UnderstandingUpdate, len(d.NewInsights), len(d.NewActions))
}
