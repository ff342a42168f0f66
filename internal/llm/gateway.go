// Package llm abstracts remote language-model providers behind one call,
// per spec §2 and §6: the LLM Gateway. It multiplexes two call shapes —
// a standard chat completion and an extended-reasoning variant that
// accepts a reasoning_effort parameter and tolerates longer latencies —
// routed purely by model id.
package llm

import (
	"context"
	"time"
)

// Message is a single role/content pair sent to the model.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// Params controls decoding and, for extended-reasoning models, the
// reasoning effort budget.
type Params struct {
	Temperature     float64
	MaxTokens       int
	ReasoningEffort string // empty for standard models
}

// Usage reports token accounting for a single completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result is the Gateway's single return shape, shared by both call types.
type Result struct {
	Text      string
	Usage     Usage
	LatencyMS int64
}

// Client is the one call the spec's Gateway exposes (§6):
// complete(model_id, messages, params) -> {text, usage, latency_ms}.
// Implementations multiplex the two call shapes internally by model id.
type Client interface {
	Complete(ctx context.Context, modelID string, messages []Message, params Params) (*Result, error)
}

// ModelTier names the three tiers the Session/Thread Manager and tools
// resolve a tool-omitted model_id against (spec §6 configuration).
type ModelTier string

const (
	TierChat      ModelTier = "chat"
	TierReasoning ModelTier = "reasoning"
	TierVerifier  ModelTier = "verifier"
)

// Router resolves a model tier to a concrete model id and reports
// whether that id uses the extended-reasoning call shape.
type Router struct {
	DefaultChat      string
	DefaultReasoning string
	DefaultVerifier  string
	ReasoningModels  map[string]bool
}

// NewRouter builds a Router from the configured defaults and the set of
// model ids that use the extended-reasoning call shape.
func NewRouter(chat, reasoning, verifier string, reasoningModels []string) *Router {
	set := make(map[string]bool, len(reasoningModels))
	for _, m := range reasoningModels {
		set[m] = true
	}
	return &Router{
		DefaultChat:      chat,
		DefaultReasoning: reasoning,
		DefaultVerifier:  verifier,
		ReasoningModels:  set,
	}
}

// ModelFor returns the model id to use for a tier when the caller omits
// one explicitly.
func (r *Router) ModelFor(tier ModelTier, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch tier {
	case TierReasoning:
		return r.DefaultReasoning
	case TierVerifier:
		return r.DefaultVerifier
	default:
		return r.DefaultChat
	}
}

// IsExtendedReasoning reports whether modelID uses the extended-reasoning
// call shape (longer timeout, reasoning_effort honored).
func (r *Router) IsExtendedReasoning(modelID string) bool {
	return r.ReasoningModels[modelID]
}

// TimeoutFor returns the call timeout for modelID given the two
// configured timeouts (spec §5's per-call timeout, 120s/600s defaults).
func (r *Router) TimeoutFor(modelID string, standard, extended time.Duration) time.Duration {
	if r.IsExtendedReasoning(modelID) {
		return extended
	}
	return standard
}
