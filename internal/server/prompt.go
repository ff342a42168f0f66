package server

import (
	"fmt"

	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/types"
)

// defaultCharBudget approximates spec §2's "model's context budget" the
// way the Session Manager's Snapshot does: ~4 characters per token.
const defaultCharBudget = 12000

// turnMessages reconstructs a Thread's prior turns as chat messages,
// newest-first dropping to the budget then chronologically reordered
// for the prompt (spec §4.5's confer contract, reused by any tool that
// participates in a shared thread).
func turnMessages(turns []*types.Turn, charBudget int) []llm.Message {
	if charBudget <= 0 {
		charBudget = defaultCharBudget
	}
	used := 0
	var kept []*types.Turn
	for i := len(turns) - 1; i >= 0; i-- {
		cost := len(turns[i].Content)
		if used+cost > charBudget && len(kept) > 0 {
			break
		}
		kept = append(kept, turns[i])
		used += cost
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	out := make([]llm.Message, 0, len(kept))
	for _, t := range kept {
		out = append(out, llm.Message{Role: t.Role, Content: t.Content})
	}
	return out
}

// stepMessages renders a session's accumulated steps as assistant turns
// following the original query, used by planner/traced_reasoning/
// biased_reasoning to give the model its own prior output as context.
func stepMessages(query string, steps []*types.Step) []llm.Message {
	out := make([]llm.Message, 0, len(steps)+1)
	out = append(out, llm.Message{Role: "user", Content: query})
	for _, st := range steps {
		out = append(out, llm.Message{Role: "assistant", Content: st.Content})
	}
	return out
}

// synthesisContext renders the current synthesis as a system message so
// the model has the distilled understanding available without replaying
// every raw step (kept short deliberately: a summary, not the full log).
func synthesisContext(s *types.SynthesisState) *llm.Message {
	if s == nil || s.CurrentUnderstanding == "" {
		return nil
	}
	return &llm.Message{
		Role: "system",
		Content: fmt.Sprintf("Current understanding (v%d, confidence %.2f, clarity %.2f): %s",
			s.Version, s.Confidence, s.Clarity, s.CurrentUnderstanding),
	}
}

// deltaPrompt asks the model to summarize the session so far as a
// synthesis delta (spec §4.4 step 1, §9's "structured parsing of model
// output" design note).
func deltaPrompt(query string, latestStepText string) llm.Message {
	return llm.Message{
		Role: "user",
		Content: fmt.Sprintf(
			"Given the original goal %q and the latest reasoning step below, emit a single JSON object "+
				"{understanding_update, new_insights:[{text,confidence,evidence_supported}], confirmed_insights:[], "+
				"invalidated_insights:[], new_actions:[{text,priority,rationale,depends_on}], updated_confidence, "+
				"updated_clarity, ready_for_decision}. Latest step:\n%s",
			query, latestStepText,
		),
	}
}

// withIntervention prepends an intervention message as a system turn,
// the mechanism spec §4.2 describes for correcting subsequent prompts.
func withIntervention(messages []llm.Message, interventions []string) []llm.Message {
	if len(interventions) == 0 {
		return messages
	}
	prefix := make([]llm.Message, 0, len(interventions))
	for _, in := range interventions {
		prefix = append(prefix, llm.Message{Role: "system", Content: in})
	}
	return append(prefix, messages...)
}
