package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reasoning-orchestrator/internal/bias"
	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/types"
)

// BiasedReasoningRequest is biased_reasoning's argument schema (spec §4.5).
type BiasedReasoningRequest struct {
	Query           string `json:"query"`
	ContinuationID  string `json:"continuation_id,omitempty"`
	ModelID         string `json:"model_id,omitempty"`
	VerifierModelID string `json:"verifier_model_id,omitempty"`
}

// handleBiasedReasoning drives up to max_analysis_rounds primary+verifier
// analysis rounds per call (spec §4.3), stopping early once a round finds
// no bias or only an acceptable severity; all rounds produce one appended
// step. A max_analysis_rounds of 0 skips verification
// entirely: a single unverified primary step plus a warning event (spec
// §8 boundary behavior).
func (s *Server) handleBiasedReasoning(ctx context.Context, req *mcp.CallToolRequest, in BiasedReasoningRequest) (*mcp.CallToolResult, *ToolResponse, error) {
	if in.Query == "" {
		return nil, nil, fmt.Errorf("query is required")
	}

	h, _, err := s.resolveSession(types.KindBiased, in.Query, in.ContinuationID)
	if err != nil {
		return nil, nil, err
	}
	h.Lock()
	defer h.Unlock()
	sess := h.Session()

	if err := checkNotFailed(sess); err != nil {
		return nil, nil, err
	}

	primaryMessages := stepMessages(sess.Query, sess.Steps)
	if len(sess.Steps) > 0 {
		primaryMessages = append(primaryMessages, llm.Message{Role: "user", Content: in.Query})
	}
	if sc := synthesisContext(sess.Synthesis); sc != nil {
		primaryMessages = append([]llm.Message{*sc}, primaryMessages...)
	}
	verifierTemplate := []llm.Message{{Role: "system", Content: "You are a bias verifier reviewing a single reasoning step in isolation."}}

	var (
		canonicalText string
		originalText  string
		corrected     bool
		detection     *types.BiasDetection
		degraded      bool
	)

	maxRounds := s.bias.MaxAnalysisRounds()
	if maxRounds <= 0 {
		model := s.router.ModelFor(llm.TierReasoning, in.ModelID)
		result, err := s.gateway.Complete(ctx, model, primaryMessages, llm.Params{Temperature: 0.7, MaxTokens: 2048})
		if err != nil {
			return nil, nil, fmt.Errorf("primary generation failed: %w", err)
		}
		canonicalText = result.Text
		detection = &types.BiasDetection{StepNumber: len(sess.Steps) + 1, HasBias: false, Severity: types.SeverityNone}
		degraded = true
	} else {
		messages := primaryMessages
		for round := 0; round < maxRounds; round++ {
			out, err := s.bias.RunStep(ctx, len(sess.Steps)+1, messages, verifierTemplate, in.ModelID, in.VerifierModelID)
			if err != nil {
				return nil, nil, fmt.Errorf("bias analysis round failed: %w", err)
			}
			canonicalText = out.CanonicalText
			if out.Corrected {
				originalText = out.PrimaryText
			}
			corrected = corrected || out.Corrected
			detection = out.Detection
			degraded = out.Degraded

			if !out.Detection.HasBias || bias.SeverityAcceptable(string(out.Detection.Severity)) {
				break
			}
			messages = append(append([]llm.Message{}, messages...),
				llm.Message{Role: "assistant", Content: out.CanonicalText},
			)
		}
	}

	step := &types.Step{Kind: types.StepBiasAnalysis, Content: canonicalText, RawOutput: canonicalText, Confidence: detection.Confidence}
	if corrected {
		step.Metadata = map[string]interface{}{"original_text": originalText}
	}
	num, err := s.sessions.AppendStep(h, step)
	if err != nil {
		return nil, nil, err
	}
	detection.StepNumber = num
	s.recordBias(sess.ID, detection)

	var events []*types.MonitoringEvent
	if degraded {
		events = append(events, &types.MonitoringEvent{
			StepNumber:   num,
			Kind:         types.EventMonitoringDegraded,
			Severity:     "warning",
			Intervention: "bias verification unavailable for this step; proceeding with the unverified primary output",
		})
	}
	events = append(events, s.monitor.Analyze(sess.Monitor, s.monitorInputWithIndex(ctx, sess.ID, num, sess.Query, canonicalText, 0.8))...)
	s.recordEvents(sess.ID, events)
	s.indexStep(ctx, sess.ID, num, canonicalText)

	synthFailures, _ := s.updateSynthesis(ctx, sess, num, canonicalText, in.ModelID)

	status := "analyzed"
	if corrected {
		status = "corrected"
	}

	resp := &ToolResponse{
		Text:              canonicalText,
		SessionID:         sess.ID,
		ContinuationID:    sess.ID,
		SynthesisSnapshot: snapshotOf(sess.Synthesis),
		Interventions:     append(interventionTexts(events), synthFailures...),
		Status:            status,
	}
	return toolResult(resp), resp, nil
}
