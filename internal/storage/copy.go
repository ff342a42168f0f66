package storage

import "reasoning-orchestrator/internal/types"

// copySession creates a deep copy of a session to prevent external
// modification of stored state.
func copySession(s *types.Session) *types.Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Steps = make([]*types.Step, len(s.Steps))
	for i, step := range s.Steps {
		out.Steps[i] = copyStep(step)
	}
	out.Synthesis = copySynthesis(s.Synthesis)
	out.Thread = copyThread(s.Thread)
	if s.Monitor != nil {
		m := *s.Monitor
		m.Phases = make(map[types.MonitoringEventKind]types.DetectorPhase, len(s.Monitor.Phases))
		for k, v := range s.Monitor.Phases {
			m.Phases[k] = v
		}
		m.CoolingUntil = make(map[types.MonitoringEventKind]int, len(s.Monitor.CoolingUntil))
		for k, v := range s.Monitor.CoolingUntil {
			m.CoolingUntil[k] = v
		}
		m.RecentTexts = append([]string(nil), s.Monitor.RecentTexts...)
		m.RecentScores = append([]float64(nil), s.Monitor.RecentScores...)
		m.Events = append([]*types.MonitoringEvent(nil), s.Monitor.Events...)
		out.Monitor = &m
	}
	return &out
}

func copyStep(s *types.Step) *types.Step {
	if s == nil {
		return nil
	}
	out := *s
	if len(s.Metadata) > 0 {
		out.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func copySynthesis(s *types.SynthesisState) *types.SynthesisState {
	if s == nil {
		return nil
	}
	out := *s
	if len(s.Insights) > 0 {
		out.Insights = make([]*types.Insight, len(s.Insights))
		for i, ins := range s.Insights {
			insCopy := *ins
			out.Insights[i] = &insCopy
		}
	}
	if len(s.Actions) > 0 {
		out.Actions = make([]*types.ActionItem, len(s.Actions))
		for i, a := range s.Actions {
			aCopy := *a
			if len(a.DependsOn) > 0 {
				aCopy.DependsOn = append([]string(nil), a.DependsOn...)
			}
			out.Actions[i] = &aCopy
		}
	}
	return &out
}

func copyThread(t *types.Thread) *types.Thread {
	if t == nil {
		return nil
	}
	out := *t
	if len(t.Turns) > 0 {
		out.Turns = make([]*types.Turn, len(t.Turns))
		for i, turn := range t.Turns {
			turnCopy := *turn
			out.Turns[i] = &turnCopy
		}
	}
	return &out
}
