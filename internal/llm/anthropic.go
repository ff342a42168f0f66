package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"reasoning-orchestrator/internal/apperr"
)

const anthropicMessagesURL = "https://api.anthropic.com/v1/messages"

// AnthropicGateway is the real Client implementation: a raw net/http POST
// to the Messages API, grounded on the teacher's HTTP-client-per-provider
// pattern. It multiplexes the two call shapes in spec §6 by consulting
// the Router: extended-reasoning models get a "thinking" budget and a
// wider client timeout; standard models do not.
type AnthropicGateway struct {
	httpClient *http.Client
	apiKey     string
	router     *Router
	standard   time.Duration
	extended   time.Duration
}

// NewAnthropicGateway builds a gateway reading ANTHROPIC_API_KEY from the
// environment if apiKey is empty.
func NewAnthropicGateway(apiKey string, router *Router, standardTimeout, extendedTimeout time.Duration) *AnthropicGateway {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &AnthropicGateway{
		httpClient: &http.Client{Timeout: extendedTimeout},
		apiKey:     apiKey,
		router:     router,
		standard:   standardTimeout,
		extended:   extendedTimeout,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicRequest struct {
	Model       string              `json:"model"`
	System      string              `json:"system,omitempty"`
	Messages    []anthropicMessage  `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature,omitempty"`
	Thinking    *anthropicThinking  `json:"thinking,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Client. It never returns a plain error: failures
// are always a *apperr.Error with a kind drawn from spec §7 so the
// retry wrapper and callers can branch on Kind.
func (g *AnthropicGateway) Complete(ctx context.Context, modelID string, messages []Message, params Params) (*Result, error) {
	if g.apiKey == "" {
		return nil, apperr.New(apperr.KindUpstreamAuth, "ANTHROPIC_API_KEY not configured")
	}

	extended := g.router != nil && g.router.IsExtendedReasoning(modelID)
	timeout := g.standard
	if extended {
		timeout = g.extended
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := anthropicRequest{
		Model:       modelID,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 4096
	}
	for _, m := range messages {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	if extended && params.ReasoningEffort != "" {
		req.Thinking = &anthropicThinking{Type: "enabled", BudgetTokens: reasoningEffortBudget(params.ReasoningEffort)}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamOther, err, "marshal anthropic request")
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamOther, err, "build anthropic request")
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		if callCtx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindUpstreamTimeout, err, "anthropic call timed out")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamOther, err, "anthropic call failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamOther, err, "read anthropic response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parse
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, apperr.New(apperr.KindUpstreamAuth, "anthropic rejected credentials")
	case http.StatusTooManyRequests:
		return nil, apperr.New(apperr.KindUpstreamRateLimited, "anthropic rate limited the request")
	case http.StatusNotFound:
		return nil, apperr.New(apperr.KindUnknownModel, fmt.Sprintf("unknown model id: %s", modelID))
	default:
		return nil, apperr.New(apperr.KindUpstreamOther, fmt.Sprintf("anthropic returned status %d: %s", resp.StatusCode, string(data)))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamOther, err, "parse anthropic response")
	}
	if parsed.Error != nil {
		return nil, apperr.New(apperr.KindUpstreamOther, parsed.Error.Message)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Result{
		Text: text,
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
		LatencyMS: latency.Milliseconds(),
	}, nil
}

// reasoningEffortBudget maps the extended-reasoning tier's effort label
// to a thinking token budget.
func reasoningEffortBudget(effort string) int {
	switch effort {
	case "low":
		return 2048
	case "high", "xhigh", "max":
		return 16384
	default:
		return 6144
	}
}
