package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reasoning-orchestrator/internal/llm"
)

// ConferRequest is confer's argument schema (spec §4.5's threaded-chat).
type ConferRequest struct {
	Message        string `json:"message"`
	ContinuationID string `json:"continuation_id,omitempty"`
	ModelID        string `json:"model_id,omitempty"`
}

// handleConfer implements threaded-chat: one model call per turn, with
// no monitor or synthesis tracking (spec §4.5).
func (s *Server) handleConfer(ctx context.Context, req *mcp.CallToolRequest, in ConferRequest) (*mcp.CallToolResult, *ToolResponse, error) {
	if in.Message == "" {
		return nil, nil, fmt.Errorf("message is required")
	}

	thread, _, err := s.threads.GetOrCreate(in.ContinuationID)
	if err != nil {
		return nil, nil, err
	}

	messages := turnMessages(thread.Turns, s.snapshotTokenBudget*4)
	messages = append(messages, llm.Message{Role: "user", Content: in.Message})

	model := s.router.ModelFor(llm.TierChat, in.ModelID)
	result, err := s.gateway.Complete(ctx, model, messages, llm.Params{Temperature: 0.7, MaxTokens: 2048})
	if err != nil {
		return nil, nil, err
	}

	s.threads.AppendTurn(thread, "user", in.Message, "confer")
	s.threads.AppendTurn(thread, "assistant", result.Text, "confer")

	resp := &ToolResponse{
		Text:           result.Text,
		SessionID:      thread.ID,
		ContinuationID: thread.ID,
	}
	return toolResult(resp), resp, nil
}
