package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/synthesis"
	"reasoning-orchestrator/internal/types"
)

// TracedReasoningRequest is traced_reasoning's argument schema (spec §4.5).
type TracedReasoningRequest struct {
	Thought           string `json:"thought"`
	ThoughtNumber     int    `json:"thought_number"`
	TotalThoughts     int    `json:"total_thoughts"`
	NextThoughtNeeded bool   `json:"next_thought_needed"`
	IsRevision        bool   `json:"is_revision,omitempty"`
	RevisesThought    int    `json:"revises_thought,omitempty"`
	BranchFromThought int    `json:"branch_from_thought,omitempty"`
	NeedsMoreThoughts bool   `json:"needs_more_thoughts,omitempty"`
	ContinuationID    string `json:"continuation_id,omitempty"`
	ModelID           string `json:"model_id,omitempty"`
}

// handleTracedReasoning implements traced-reasoning: thought 1 records
// the query verbatim; every later thought is generated, monitored, and
// folds into the running synthesis (spec §4.5).
func (s *Server) handleTracedReasoning(ctx context.Context, req *mcp.CallToolRequest, in TracedReasoningRequest) (*mcp.CallToolResult, *ToolResponse, error) {
	if in.Thought == "" || in.ThoughtNumber < 1 {
		return nil, nil, fmt.Errorf("thought and a positive thought_number are required")
	}

	h, thread, err := s.resolveSession(types.KindTraced, in.Thought, in.ContinuationID)
	if err != nil {
		return nil, nil, err
	}
	h.Lock()
	defer h.Unlock()
	sess := h.Session()

	if err := checkNotFailed(sess); err != nil {
		return nil, nil, err
	}

	if in.ThoughtNumber == 1 && len(sess.Steps) == 0 {
		step := &types.Step{Kind: types.StepQuery, Content: in.Thought, RawOutput: in.Thought}
		num, err := s.sessions.AppendStep(h, step)
		if err != nil {
			return nil, nil, err
		}
		if lerr := h.Lineage().AddStep(num, "", 0, false); lerr != nil {
			return nil, nil, fmt.Errorf("record step lineage: %w", lerr)
		}
		if thread != nil {
			s.threads.AppendTurn(thread, "user", in.Thought, "traced_reasoning")
		}

		events := s.monitor.Analyze(sess.Monitor, s.monitorInputWithIndex(ctx, sess.ID, num, sess.Query, in.Thought, 0.8))
		s.recordEvents(sess.ID, events)
		s.indexStep(ctx, sess.ID, num, in.Thought)

		sess.Synthesis = synthesis.FirstVersion(in.Thought)
		s.recordSynthesis(ctx, sess.ID, sess.Kind, sess.Synthesis)

		status := "awaiting_next_thought"
		if !in.NextThoughtNeeded && !in.NeedsMoreThoughts {
			sess.Status = types.StatusCompleted
			status = "completed"
		}
		resp := &ToolResponse{
			Text:              in.Thought,
			SessionID:         sess.ID,
			ContinuationID:    sess.ID,
			SynthesisSnapshot: snapshotOf(sess.Synthesis),
			Interventions:     interventionTexts(events),
			Status:            status,
		}
		return toolResult(resp), resp, nil
	}

	messages := stepMessages(sess.Query, sess.Steps)
	if thread != nil {
		messages = append(turnMessages(thread.Turns, s.snapshotTokenBudget*4), messages...)
	}
	messages = append(messages, llm.Message{Role: "user", Content: in.Thought})
	if sc := synthesisContext(sess.Synthesis); sc != nil {
		messages = append([]llm.Message{*sc}, messages...)
	}
	messages = withIntervention(messages, latestInterventions(sess.Monitor))

	model := s.router.ModelFor(llm.TierReasoning, in.ModelID)
	result, err := s.gateway.Complete(ctx, model, messages, llm.Params{Temperature: 0.6, MaxTokens: 2048})
	if err != nil {
		return nil, nil, fmt.Errorf("traced reasoning step generation failed: %w", err)
	}

	step := &types.Step{
		Kind:           types.StepReasoning,
		Content:        result.Text,
		RawOutput:      result.Text,
		ModelID:        model,
		RevisesStep:    in.RevisesThought,
		BranchFromStep: in.BranchFromThought,
	}
	num, err := s.sessions.AppendStep(h, step)
	if err != nil {
		return nil, nil, err
	}
	ancestor := in.RevisesThought
	if ancestor == 0 {
		ancestor = in.BranchFromThought
	}
	if lerr := h.Lineage().AddStep(num, "", ancestor, in.IsRevision); lerr != nil {
		return nil, nil, fmt.Errorf("record step lineage: %w", lerr)
	}
	if thread != nil {
		s.threads.AppendTurn(thread, "assistant", result.Text, "traced_reasoning")
	}

	events := s.monitor.Analyze(sess.Monitor, s.monitorInputWithIndex(ctx, sess.ID, num, sess.Query, result.Text, 0.8))
	s.recordEvents(sess.ID, events)
	s.indexStep(ctx, sess.ID, num, result.Text)

	synthFailures, _ := s.updateSynthesis(ctx, sess, num, result.Text, in.ModelID)

	status := "awaiting_next_thought"
	if !in.NextThoughtNeeded && !in.NeedsMoreThoughts {
		sess.Status = types.StatusCompleted
		status = "completed"
	}

	resp := &ToolResponse{
		Text:              result.Text,
		SessionID:         sess.ID,
		ContinuationID:    sess.ID,
		SynthesisSnapshot: snapshotOf(sess.Synthesis),
		Interventions:     append(interventionTexts(events), synthFailures...),
		Status:            status,
	}
	return toolResult(resp), resp, nil
}

// latestInterventions surfaces the interventions from the most recently
// recorded monitoring events, prepended to the next prompt (spec §4.2).
func latestInterventions(ms *types.MonitorState) []string {
	if ms == nil || len(ms.Events) == 0 {
		return nil
	}
	last := ms.Events[len(ms.Events)-1]
	if last.Intervention == "" {
		return nil
	}
	return []string{last.Intervention}
}
