package server

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"reasoning-orchestrator/internal/apperr"
	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/monitor"
	"reasoning-orchestrator/internal/synthesis"
	"reasoning-orchestrator/internal/types"
)

// maxSynthesisFailureStreak matches spec §8's boundary behavior: three
// consecutive parse failures fail the session; the fourth call on it is
// rejected outright by checkNotFailed.
const maxSynthesisFailureStreak = 3

// checkNotFailed rejects further operations on a session spec §8 already
// marked failed via repeated synthesis parse failures.
func checkNotFailed(sess *types.Session) error {
	if sess.Status == types.StatusFailed {
		return apperr.New(apperr.KindSessionFailed, fmt.Sprintf("session %s has failed (repeated synthesis parse failures)", sess.ID))
	}
	return nil
}

// monitorInput builds the Monitor's per-step input from the handful of
// fields every tool has in common.
func monitorInput(stepNumber int, originalQuery, text string, qualityScore float64) monitor.Input {
	return monitor.Input{
		StepNumber:    stepNumber,
		OriginalQuery: originalQuery,
		Text:          text,
		QualityScore:  qualityScore,
	}
}

// recordEvents persists monitoring events (spec §6's append-monitoring-event).
// It degrades silently: persistence failures never fail the tool call.
// Step text indexing is done separately by indexStep.
func (s *Server) recordEvents(sessionID string, events []*types.MonitoringEvent) {
	if s.store == nil {
		return
	}
	for _, ev := range events {
		if err := s.store.AppendMonitoringEvent(sessionID, ev); err != nil {
			log.Printf("[WARN] append_monitoring_event failed for session %s: %v", sessionID, err)
		}
	}
}

// monitorInputWithIndex builds the Monitor's per-step input like
// monitorInput, additionally consulting the optional chromem-go step
// index for the nearest prior step by embedding similarity. This lets
// circular-reasoning detection see past MonitorState.RecentTexts'
// bounded window; absence of an index (or no match, or a match that
// isn't actually prior to stepNumber) leaves the plain input untouched.
func (s *Server) monitorInputWithIndex(ctx context.Context, sessionID string, stepNumber int, originalQuery, text string, qualityScore float64) monitor.Input {
	in := monitorInput(stepNumber, originalQuery, text, qualityScore)
	if s.stepIndex == nil {
		return in
	}
	result, ok, err := s.stepIndex.NearestPrior(ctx, sessionID, text, s.circularWindow)
	if err != nil {
		log.Printf("[WARN] step index lookup failed for session %s step %d: %v", sessionID, stepNumber, err)
		return in
	}
	if !ok {
		return in
	}
	priorStep, perr := strconv.Atoi(result.Metadata["step_number"])
	if perr != nil || priorStep <= 0 || priorStep >= stepNumber {
		return in
	}
	in.HasIndexedNearest = true
	in.IndexedNearestSimilarity = float64(result.Similarity)
	in.IndexedNearestOffset = stepNumber - priorStep
	return in
}

func (s *Server) indexStep(ctx context.Context, sessionID string, stepNumber int, text string) {
	if s.stepIndex == nil {
		return
	}
	stepID := fmt.Sprintf("%s:%d", sessionID, stepNumber)
	if err := s.stepIndex.AddStep(ctx, sessionID, stepID, stepNumber, text); err != nil {
		log.Printf("[WARN] step index add failed for session %s step %d: %v", sessionID, stepNumber, err)
	}
}

// recordSynthesis persists the new synthesis version/insights/actions and
// mirrors confirmed insights into the optional Neo4j graph.
func (s *Server) recordSynthesis(ctx context.Context, sessionID string, kind types.SessionKind, state *types.SynthesisState) {
	if s.store != nil {
		if err := s.store.AppendSynthesisVersion(sessionID, state); err != nil {
			log.Printf("[WARN] append_synthesis_version failed for session %s: %v", sessionID, err)
		}
		for _, ins := range state.Insights {
			if err := s.store.AppendInsight(sessionID, ins); err != nil {
				log.Printf("[WARN] append_insight failed for session %s: %v", sessionID, err)
			}
		}
		for _, act := range state.Actions {
			if err := s.store.AppendAction(sessionID, act); err != nil {
				log.Printf("[WARN] append_action failed for session %s: %v", sessionID, err)
			}
		}
	}
	if s.mirror != nil && s.mirror.Enabled() {
		if err := s.mirror.MirrorInsights(ctx, sessionID, kind, state); err != nil {
			log.Printf("[WARN] synthesis mirror failed for session %s: %v", sessionID, err)
		}
	}
}

// updateSynthesis drives spec §4.4's per-step update: request a delta
// from the model, parse it, and merge it into the session's synthesis.
// A parse failure retains the prior state and increments the session's
// failure streak, failing the session at the threshold (spec §8).
func (s *Server) updateSynthesis(ctx context.Context, sess *types.Session, triggerStep int, latestStepText, modelID string) ([]string, error) {
	model := s.router.ModelFor(llm.TierChat, modelID)
	result, err := s.gateway.Complete(ctx, model, []llm.Message{deltaPrompt(sess.Query, latestStepText)}, llm.Params{Temperature: 0.3, MaxTokens: 1024})
	if err != nil {
		// An upstream failure synthesizing is not a parse failure; the
		// step itself already succeeded, so the prior synthesis is kept
		// and no failure streak is incurred.
		log.Printf("[WARN] synthesis delta request failed for session %s: %v", sess.ID, err)
		return nil, nil
	}

	delta, perr := synthesis.ParseDelta(result.Text)
	if perr != nil {
		sess.FailedSynthesisStreak++
		msg := synthesis.DescribeFailure(sess.ID, triggerStep, perr)
		if sess.FailedSynthesisStreak >= maxSynthesisFailureStreak {
			sess.Status = types.StatusFailed
		}
		return []string{msg}, nil
	}

	sess.FailedSynthesisStreak = 0
	var links []synthesis.SupportLink
	sess.Synthesis, links = s.synth.Update(sess.Synthesis, triggerStep, result.Text, delta)
	s.recordSynthesis(ctx, sess.ID, sess.Kind, sess.Synthesis)
	s.linkSupport(ctx, links)
	return nil, nil
}

// linkSupport mirrors any SupportLinks a synthesis update produced into
// the optional Neo4j graph. A nil or disabled mirror makes this a no-op.
func (s *Server) linkSupport(ctx context.Context, links []synthesis.SupportLink) {
	if s.mirror == nil || !s.mirror.Enabled() {
		return
	}
	for _, link := range links {
		if err := s.mirror.LinkSupport(ctx, link.FromInsightID, link.ToInsightID); err != nil {
			log.Printf("[WARN] synthesis mirror link_support failed: %v", err)
		}
	}
}

// recordBias persists a bias detection.
func (s *Server) recordBias(sessionID string, detection *types.BiasDetection) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendBiasDetection(sessionID, detection); err != nil {
		log.Printf("[WARN] append_bias_detection failed for session %s: %v", sessionID, err)
	}
}
