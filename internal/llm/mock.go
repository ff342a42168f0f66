package llm

import (
	"context"
	"fmt"
	"sync"

	"reasoning-orchestrator/internal/apperr"
)

// MockClient is a deterministic Client for tests, grounded on the
// teacher's mock-provider pattern. Responses are queued per model id (or
// a wildcard "*" queue); each call dequeues the next queued result, or
// falls back to echoing the last user message if the queue is empty.
type MockClient struct {
	mu      sync.Mutex
	queued  map[string][]mockResponse
	calls   []MockCall
}

type mockResponse struct {
	result *Result
	err    error
}

// MockCall records one Complete invocation for test assertions.
type MockCall struct {
	ModelID  string
	Messages []Message
	Params   Params
}

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{queued: make(map[string][]mockResponse)}
}

// QueueText queues a successful text response for modelID ("*" for any).
func (m *MockClient) QueueText(modelID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[modelID] = append(m.queued[modelID], mockResponse{
		result: &Result{Text: text, Usage: Usage{PromptTokens: 10, CompletionTokens: len(text) / 4, TotalTokens: 10 + len(text)/4}, LatencyMS: 1},
	})
}

// QueueError queues a failing response for modelID ("*" for any).
func (m *MockClient) QueueError(modelID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[modelID] = append(m.queued[modelID], mockResponse{err: err})
}

// Calls returns all recorded calls in order.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, modelID string, messages []Message, params Params) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{ModelID: modelID, Messages: messages, Params: params})

	queue := m.queued[modelID]
	if len(queue) == 0 {
		queue = m.queued["*"]
		if len(queue) > 0 {
			m.queued["*"] = queue[1:]
		}
	} else {
		m.queued[modelID] = queue[1:]
	}
	if len(queue) == 0 {
		return m.echo(messages), nil
	}

	next := queue[0]
	if next.err != nil {
		return nil, next.err
	}
	return next.result, nil
}

func (m *MockClient) echo(messages []Message) *Result {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = messages[i].Content
			break
		}
	}
	text := fmt.Sprintf("mock response to: %s", last)
	return &Result{Text: text, Usage: Usage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10}, LatencyMS: 1}
}

// UnknownModelClient always fails with UnknownModel, used to exercise
// the Gateway's unknown-model error path without a real HTTP call.
type UnknownModelClient struct{}

func (UnknownModelClient) Complete(ctx context.Context, modelID string, messages []Message, params Params) (*Result, error) {
	return nil, apperr.New(apperr.KindUnknownModel, fmt.Sprintf("unknown model id: %s", modelID))
}
