package synthesis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"reasoning-orchestrator/internal/config"
	"reasoning-orchestrator/internal/types"
)

// Engine runs the Synthesis Engine's update algorithm (spec §4.4).
type Engine struct {
	cfg config.BiasConfig // readiness thresholds live alongside bias config (spec §6)
}

// New builds an Engine from the readiness thresholds in spec §4.4/§6
// (confidence 0.75, clarity 0.70).
func New(cfg config.BiasConfig) *Engine {
	return &Engine{cfg: cfg}
}

// SupportLink records that a new insight arriving in the same delta as a
// confirmed-insight boost corroborates it, for the optional Neo4j
// mirror's (Insight)-[:SUPPORTS]->(Insight) edge (spec §9).
type SupportLink struct {
	FromInsightID string
	ToInsightID   string
}

// Update merges delta into prior (which may be nil for a session's first
// synthesis) and returns the new, incremented-version SynthesisState
// plus any support links the merge produced. prior is never mutated.
func (e *Engine) Update(prior *types.SynthesisState, triggerStep int, rawDelta string, delta *Delta) (*types.SynthesisState, []SupportLink) {
	version := 1
	var insights []*types.Insight
	var actions []*types.ActionItem
	understanding := ""
	priorConfidence, priorClarity := 0.0, 0.0

	if prior != nil {
		version = prior.Version + 1
		insights = append(insights, prior.Insights...)
		actions = append(actions, prior.Actions...)
		understanding = prior.CurrentUnderstanding
		priorConfidence = prior.Confidence
		priorClarity = prior.Clarity
	}

	if delta.UnderstandingUpdate != "" {
		understanding = delta.UnderstandingUpdate
	}

	insights, links := mergeInsights(insights, delta, triggerStep)
	actions = mergeActions(actions, delta.NewActions)

	confidence := clamp01(0.6*delta.UpdatedConfidence + 0.4*priorConfidence)
	clarity := clamp01(0.6*delta.UpdatedClarity + 0.4*priorClarity)
	ready := delta.ReadyForDecision && confidence >= e.cfg.ReadyConfidenceThreshold && clarity >= e.cfg.ReadyClarityThreshold

	return &types.SynthesisState{
		Version:              version,
		TriggerStep:          triggerStep,
		CurrentUnderstanding: understanding,
		Confidence:           confidence,
		Clarity:              clarity,
		Insights:             insights,
		Actions:              actions,
		ReadyForDecision:     ready,
		RawDelta:             rawDelta,
		CreatedAt:            time.Now(),
	}, links
}

// mergeInsights appends new insights, boosts confirmed ones (clamped to
// 1), and drops invalidated ones, per spec §4.4 step 2. When a delta both
// confirms a prior insight and introduces new ones, the new insights are
// treated as the corroborating evidence and returned as SupportLinks.
func mergeInsights(prior []*types.Insight, delta *Delta, triggerStep int) ([]*types.Insight, []SupportLink) {
	invalidated := make(map[string]bool, len(delta.InvalidatedInsights))
	for _, text := range delta.InvalidatedInsights {
		invalidated[text] = true
	}
	confirmed := make(map[string]bool, len(delta.ConfirmedInsights))
	for _, text := range delta.ConfirmedInsights {
		confirmed[text] = true
	}

	out := make([]*types.Insight, 0, len(prior)+len(delta.NewInsights))
	var boostedIDs []string
	for _, ins := range prior {
		if invalidated[ins.Text] {
			continue
		}
		if confirmed[ins.Text] {
			boosted := *ins
			boosted.Confidence = clamp01(ins.Confidence + 0.1)
			out = append(out, &boosted)
			boostedIDs = append(boostedIDs, boosted.ID)
			continue
		}
		out = append(out, ins)
	}

	var newIDs []string
	for _, ni := range delta.NewInsights {
		ins := &types.Insight{
			ID:                "ins_" + uuid.NewString(),
			Text:              ni.Text,
			Confidence:        clamp01(ni.Confidence),
			SourceStep:        triggerStep,
			EvidenceSupported: ni.EvidenceSupported,
		}
		out = append(out, ins)
		newIDs = append(newIDs, ins.ID)
	}

	var links []SupportLink
	for _, from := range newIDs {
		for _, to := range boostedIDs {
			links = append(links, SupportLink{FromInsightID: from, ToInsightID: to})
		}
	}
	return out, links
}

// mergeActions merges new actions by text-equivalence, escalating
// priority to the higher of the two on conflict, per spec §4.4 step 2.
func mergeActions(prior []*types.ActionItem, newActions []DeltaAction) []*types.ActionItem {
	out := make([]*types.ActionItem, 0, len(prior)+len(newActions))
	for _, a := range prior {
		aCopy := *a
		out = append(out, &aCopy)
	}
	byText := make(map[string]*types.ActionItem, len(out))
	for _, a := range out {
		byText[a.Text] = a
	}

	for _, na := range newActions {
		prio := parsePriority(na.Priority)
		if existing, ok := byText[na.Text]; ok {
			if higherPriority(prio, existing.Priority) {
				existing.Priority = prio
			}
			if na.Rationale != "" {
				existing.Rationale = na.Rationale
			}
			continue
		}
		item := &types.ActionItem{
			ID:        "act_" + uuid.NewString(),
			Text:      na.Text,
			Priority:  prio,
			Rationale: na.Rationale,
			DependsOn: na.DependsOn,
		}
		out = append(out, item)
		byText[na.Text] = item
	}
	return out
}

func parsePriority(s string) types.Priority {
	switch s {
	case string(types.PriorityHigh), string(types.PriorityMedium), string(types.PriorityLow):
		return types.Priority(s)
	default:
		return types.PriorityMedium
	}
}

func priorityRank(p types.Priority) int {
	switch p {
	case types.PriorityHigh:
		return 3
	case types.PriorityMedium:
		return 2
	default:
		return 1
	}
}

func higherPriority(a, b types.Priority) bool { return priorityRank(a) > priorityRank(b) }

// FirstVersion builds the version-1 synthesis created after step 1 (spec
// §3's SynthesisState lifecycle), when no model delta is available yet.
func FirstVersion(understanding string) *types.SynthesisState {
	return &types.SynthesisState{
		Version:              1,
		TriggerStep:          1,
		CurrentUnderstanding: understanding,
		CreatedAt:            time.Now(),
	}
}

// DescribeFailure renders a short message for a SynthesisParseFailure
// MonitoringEvent payload.
func DescribeFailure(sessionID string, triggerStep int, err error) string {
	return fmt.Sprintf("session %s step %d: %v", sessionID, triggerStep, err)
}
