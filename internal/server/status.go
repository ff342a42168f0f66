package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reasoning-orchestrator/internal/types"
)

// IlluminationStatusRequest is illumination_status's argument schema: a
// read-only diagnostic over a single session (spec §4.5).
type IlluminationStatusRequest struct {
	SessionID string `json:"session_id"`
}

// IlluminationStatusResponse carries the diagnostic snapshot.
type IlluminationStatusResponse struct {
	Text              string                   `json:"text"`
	SessionID         string                   `json:"session_id"`
	Status            string                   `json:"status"`
	SynthesisSnapshot *SynthesisSnapshot       `json:"synthesis,omitempty"`
	RecentEvents      []*types.MonitoringEvent `json:"recent_events,omitempty"`
	StepCount         int                      `json:"step_count"`
	TotalSessions     int                      `json:"total_sessions"`
	TotalSteps        int                      `json:"total_steps"`
	LatestAncestors   []int                    `json:"latest_ancestors,omitempty"`
	LatestSiblings    []int                    `json:"latest_siblings,omitempty"`
}

// handleIlluminationStatus reports a session's monitor history, current
// synthesis, and store-wide metrics without mutating anything (spec §4.5).
func (s *Server) handleIlluminationStatus(ctx context.Context, req *mcp.CallToolRequest, in IlluminationStatusRequest) (*mcp.CallToolResult, *IlluminationStatusResponse, error) {
	if in.SessionID == "" {
		return nil, nil, fmt.Errorf("session_id is required")
	}

	h, err := s.sessions.Lookup(in.SessionID)
	if err != nil {
		return nil, nil, err
	}
	h.Lock()
	sess := h.Session()
	snapshot := snapshotOf(sess.Synthesis)
	stepCount := len(sess.Steps)
	status := string(sess.Status)
	var ancestors, siblings []int
	if stepCount > 0 {
		last := sess.Steps[stepCount-1]
		if lin := h.Lineage(); lin != nil {
			if a, lerr := lin.Ancestors(last.Number); lerr == nil {
				ancestors = a
			}
			if sib, lerr := lin.Siblings(last.Number, last.BranchID); lerr == nil {
				siblings = sib
			}
		}
	}
	h.Unlock()

	var recent []*types.MonitoringEvent
	if s.store != nil {
		recent, _ = s.store.RecentMonitoringEvents(in.SessionID, 10)
	}

	var totalSessions, totalSteps int
	if s.store != nil {
		if metrics := s.store.GetMetrics(); metrics != nil {
			totalSessions = metrics.TotalSessions
			totalSteps = metrics.TotalSteps
		}
	}

	resp := &IlluminationStatusResponse{
		Text:              fmt.Sprintf("session %s: status=%s, %d step(s)", sess.ID, status, stepCount),
		SessionID:         sess.ID,
		Status:            status,
		SynthesisSnapshot: snapshot,
		RecentEvents:      recent,
		StepCount:         stepCount,
		TotalSessions:     totalSessions,
		TotalSteps:        totalSteps,
		LatestAncestors:   ancestors,
		LatestSiblings:    siblings,
	}
	return toolResult(resp), resp, nil
}
