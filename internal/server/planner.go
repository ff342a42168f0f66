package server

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/types"
)

// PlannerRequest is planner's argument schema (spec §4.5).
type PlannerRequest struct {
	StepText         string `json:"step_text"`
	StepNumber       int    `json:"step_number"`
	TotalSteps       int    `json:"total_steps"`
	NextStepRequired bool   `json:"next_step_required"`
	IsRevision       bool   `json:"is_revision,omitempty"`
	RevisesStep      int    `json:"revises_step,omitempty"`
	BranchFromStep   int    `json:"branch_from_step,omitempty"`
	BranchID         string `json:"branch_id,omitempty"`
	ContinuationID   string `json:"continuation_id,omitempty"`
	ModelID          string `json:"model_id,omitempty"`
}

// handlePlanner implements planner: stepwise plan construction with the
// caller-driven "pause_for_deep_thinking" reflection gate on steps 1-3 of
// a >=5-step plan, plus branch/revision lineage tracking (spec §4.5).
func (s *Server) handlePlanner(ctx context.Context, req *mcp.CallToolRequest, in PlannerRequest) (*mcp.CallToolResult, *ToolResponse, error) {
	if in.StepText == "" || in.StepNumber < 1 {
		return nil, nil, fmt.Errorf("step_text and a positive step_number are required")
	}

	h, _, err := s.resolveSession(types.KindPlanner, in.StepText, in.ContinuationID)
	if err != nil {
		return nil, nil, err
	}
	h.Lock()
	defer h.Unlock()
	sess := h.Session()

	if err := checkNotFailed(sess); err != nil {
		return nil, nil, err
	}

	if in.TotalSteps >= 5 && in.StepNumber <= 3 && len(sess.Steps) < in.StepNumber {
		if sess.PendingPause == nil {
			sess.PendingPause = make(map[int]bool)
		}
		if !sess.PendingPause[in.StepNumber] {
			sess.PendingPause[in.StepNumber] = true
			resp := &ToolResponse{
				Text:           "pause_for_deep_thinking",
				SessionID:      sess.ID,
				ContinuationID: sess.ID,
				Status:         "pause_for_deep_thinking",
			}
			return toolResult(resp), resp, nil
		}
	}

	messages := stepMessages(sess.Query, sess.Steps)
	if in.StepNumber > 1 {
		messages = append(messages, llm.Message{Role: "user", Content: in.StepText})
	}
	if sc := synthesisContext(sess.Synthesis); sc != nil {
		messages = append([]llm.Message{*sc}, messages...)
	}

	model := s.router.ModelFor(llm.TierReasoning, in.ModelID)
	result, err := s.gateway.Complete(ctx, model, messages, llm.Params{Temperature: 0.6, MaxTokens: 2048})
	if err != nil {
		return nil, nil, fmt.Errorf("planner step generation failed: %w", err)
	}

	step := &types.Step{
		Kind:           types.StepPlanning,
		Content:        result.Text,
		RawOutput:      result.Text,
		ModelID:        model,
		RevisesStep:    in.RevisesStep,
		BranchFromStep: in.BranchFromStep,
		BranchID:       in.BranchID,
	}
	num, err := s.sessions.AppendStep(h, step)
	if err != nil {
		return nil, nil, err
	}

	ancestor := in.RevisesStep
	if ancestor == 0 {
		ancestor = in.BranchFromStep
	}
	if lerr := h.Lineage().AddStep(num, in.BranchID, ancestor, in.IsRevision); lerr != nil {
		return nil, nil, fmt.Errorf("record step lineage: %w", lerr)
	}

	events := s.monitor.Analyze(sess.Monitor, s.monitorInputWithIndex(ctx, sess.ID, num, sess.Query, result.Text, 0.8))
	s.recordEvents(sess.ID, events)
	s.indexStep(ctx, sess.ID, num, result.Text)

	synthFailures, _ := s.updateSynthesis(ctx, sess, num, result.Text, in.ModelID)

	status := "planning"
	if !in.NextStepRequired {
		sess.Status = types.StatusCompleted
		sess.CompletedAt = time.Now()
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
