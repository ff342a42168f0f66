package monitor

import (
	"fmt"

	"reasoning-orchestrator/internal/types"
)

// semanticDrift implements detector 1 (spec §4.2): drift from the
// original query, armed on the first trigger and firing on the second
// consecutive one.
func (m *Monitor) semanticDrift(state *types.MonitorState, in Input) *types.MonitoringEvent {
	sim := m.provider.Similarity(in.Text, in.OriginalQuery)
	drift := 1 - sim
	triggered := drift > m.cfg.DriftThreshold

	if !m.advance(state, types.EventSemanticDrift, in.StepNumber, triggered) {
		return nil
	}
	return &types.MonitoringEvent{
		StepNumber:   in.StepNumber,
		Kind:         types.EventSemanticDrift,
		Severity:     severityFor(drift, m.cfg.DriftThreshold),
		Intervention: interventionFor(types.EventSemanticDrift, in.StepNumber, ""),
		Payload:      map[string]interface{}{"drift": drift, "threshold": m.cfg.DriftThreshold},
	}
}

// qualityDegradation implements detector 2: a moving average over the
// last DegradationWindow quality scores falling below the floor.
func (m *Monitor) qualityDegradation(state *types.MonitorState, in Input) *types.MonitoringEvent {
	window := append(append([]float64{}, state.RecentScores...), in.QualityScore)
	if len(window) > m.cfg.DegradationWindow {
		window = window[len(window)-m.cfg.DegradationWindow:]
	}
	if len(window) < m.cfg.DegradationWindow {
		return nil
	}

	avg := mean(window)
	triggered := avg < m.cfg.DegradationFloor

	if !m.advance(state, types.EventQualityDegradation, in.StepNumber, triggered) {
		return nil
	}
	return &types.MonitoringEvent{
		StepNumber:   in.StepNumber,
		Kind:         types.EventQualityDegradation,
		Severity:     severityFor(m.cfg.DegradationFloor-avg, 0),
		Intervention: interventionFor(types.EventQualityDegradation, in.StepNumber, ""),
		Payload:      map[string]interface{}{"moving_average": avg, "floor": m.cfg.DegradationFloor},
	}
}

// circularReasoning implements detector 3: similarity to any prior step
// within the last CircularWindow steps exceeding CircularThreshold.
// Severity scales with how recent and how similar the match is.
func (m *Monitor) circularReasoning(state *types.MonitorState, in Input) *types.MonitoringEvent {
	window := state.RecentTexts
	if len(window) > m.cfg.CircularWindow {
		window = window[len(window)-m.cfg.CircularWindow:]
	}

	bestSim := 0.0
	bestOffset := 0
	for offset, prior := range reversed(window) {
		sim := m.provider.Similarity(in.Text, prior)
		if sim > bestSim {
			bestSim = sim
			bestOffset = offset + 1
		}
	}
	if in.HasIndexedNearest && in.IndexedNearestSimilarity > bestSim {
		bestSim = in.IndexedNearestSimilarity
		bestOffset = in.IndexedNearestOffset
	}
	triggered := bestSim >= m.cfg.CircularThreshold

	if !m.advance(state, types.EventCircularReasoning, in.StepNumber, triggered) {
		return nil
	}
	priorStep := in.StepNumber - bestOffset
	return &types.MonitoringEvent{
		StepNumber:   in.StepNumber,
		Kind:         types.EventCircularReasoning,
		Severity:     circularSeverity(bestSim, bestOffset, m.cfg.CircularWindow),
		Intervention: interventionFor(types.EventCircularReasoning, in.StepNumber, fmt.Sprintf("step %d", priorStep)),
		Payload:      map[string]interface{}{"similar_to_step": priorStep, "similarity": bestSim},
	}
}

// distractorFixation implements detector 4: successive steps keep high
// mutual similarity to each other but stay below DistractorThreshold
// similarity to the original query.
func (m *Monitor) distractorFixation(state *types.MonitorState, in Input) *types.MonitoringEvent {
	if len(state.RecentTexts) == 0 {
		return nil
	}
	prev := state.RecentTexts[len(state.RecentTexts)-1]
	mutual := m.provider.Similarity(in.Text, prev)
	queryRelevance := m.provider.Similarity(in.Text, in.OriginalQuery)

	triggered := mutual >= m.cfg.CircularThreshold && queryRelevance < m.cfg.DistractorThreshold

	if !m.advance(state, types.EventDistractorFixation, in.StepNumber, triggered) {
		return nil
	}
	return &types.MonitoringEvent{
		StepNumber:   in.StepNumber,
		Kind:         types.EventDistractorFixation,
		Severity:     severityFor(mutual-queryRelevance, 0),
		Intervention: interventionFor(types.EventDistractorFixation, in.StepNumber, ""),
		Payload:      map[string]interface{}{"mutual_similarity": mutual, "query_relevance": queryRelevance},
	}
}

// attentionEntropy implements detector 5 (optional): only runs when the
// Gateway reported an entropy value and a floor is configured.
func (m *Monitor) attentionEntropy(state *types.MonitorState, in Input) *types.MonitoringEvent {
	if !in.HasEntropy || m.cfg.EntropyFloor <= 0 {
		return nil
	}
	triggered := in.AttentionEntropy < m.cfg.EntropyFloor

	if !m.advance(state, types.EventPerplexitySpike, in.StepNumber, triggered) {
		return nil
	}
	return &types.MonitoringEvent{
		StepNumber:   in.StepNumber,
		Kind:         types.EventPerplexitySpike,
		Severity:     severityFor(m.cfg.EntropyFloor-in.AttentionEntropy, 0),
		Intervention: interventionFor(types.EventQualityDegradation, in.StepNumber, ""),
		Payload:      map[string]interface{}{"entropy": in.AttentionEntropy, "floor": m.cfg.EntropyFloor},
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func reversed(items []string) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return out
}

func severityFor(magnitude, threshold float64) string {
	over := magnitude - threshold
	switch {
	case over >= 0.4:
		return "critical"
	case over >= 0.25:
		return "high"
	case over >= 0.1:
		return "medium"
	default:
		return "low"
	}
}

func circularSeverity(similarity float64, offset, window int) string {
	recency := 1.0
	if window > 0 {
		recency = 1 - float64(offset)/float64(window)
	}
	score := similarity*0.6 + recency*0.4
	switch {
	case score >= 0.9:
		return "critical"
	case score >= 0.75:
		return "high"
	case score >= 0.6:
		return "medium"
	default:
		return "low"
	}
}
