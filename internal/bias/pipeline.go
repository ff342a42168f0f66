// Package bias implements the Bias Verification Pipeline (spec §4.3): a
// two-role loop in which a primary reasoner produces a step and a
// verifier classifies cognitive biases, optionally producing a corrected
// step. No direct teacher equivalent exists for the loop itself; the
// recognized bias tags are reused, mapped onto spec.md §4.3's tag set,
// from the bias taxonomy in the teacher's
// internal/metacognition/bias_detection.go (confirmation, anchoring,
// availability, recency/hasty-conclusion, overconfidence).
package bias

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reasoning-orchestrator/internal/config"
	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/types"
)

// Recognized bias tags (spec §4.3).
const (
	TagConfirmationBias  = "confirmation-bias"
	TagAnchoringBias     = "anchoring-bias"
	TagAvailabilityBias  = "availability-bias"
	TagReasoningError    = "reasoning-error"
	TagOverGeneralization = "over-generalization"
	TagFalseEquivalence  = "false-equivalence"
	TagCircularReasoning = "circular-reasoning"
	TagHastyConclusion   = "hasty-conclusion"
)

// Verdict is the verifier's structured classification (spec §4.3 step 2).
type Verdict struct {
	HasBias     bool     `json:"has_bias"`
	Severity    string   `json:"severity"`
	Biases      []string `json:"biases"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
}

// Round is the outcome of one primary+verifier iteration.
type Round struct {
	PrimaryText  string
	CanonicalText string // == PrimaryText unless a correction was accepted
	Corrected    bool
	Detection    *types.BiasDetection
	Degraded     bool // verifier failed; detection defaults to has_bias=false
}

// Pipeline drives the primary+verifier loop.
type Pipeline struct {
	gateway llm.Client
	router  *llm.Router
	cfg     config.BiasConfig
}

// New builds a Pipeline.
func New(gateway llm.Client, router *llm.Router, cfg config.BiasConfig) *Pipeline {
	return &Pipeline{gateway: gateway, router: router, cfg: cfg}
}

// MaxAnalysisRounds is the configured round cap driving spec §8's
// "max_analysis_rounds = 0" boundary behavior at the call site.
func (p *Pipeline) MaxAnalysisRounds() int {
	return p.cfg.MaxAnalysisRounds
}

// SeverityAcceptable reports whether severity needs no correction pass.
func SeverityAcceptable(severity string) bool {
	return severityAcceptable(severity)
}

// RunStep executes spec §4.3's per-step iteration: primary generation,
// verification, and — when warranted — a correction pass. stepNumber
// identifies the step being analyzed for the resulting BiasDetection.
func (p *Pipeline) RunStep(ctx context.Context, stepNumber int, primaryMessages, verifierMessagesTemplate []llm.Message, primaryModel, verifierModel string) (*Round, error) {
	primaryModel = p.router.ModelFor(llm.TierReasoning, primaryModel)
	primaryResult, err := p.gateway.Complete(ctx, primaryModel, primaryMessages, llm.Params{Temperature: 0.7, MaxTokens: 2048})
	if err != nil {
		return nil, fmt.Errorf("primary generation failed: %w", err)
	}

	verdict, degraded := p.verify(ctx, stepNumber, primaryResult.Text, verifierMessagesTemplate, verifierModel)

	round := &Round{
		PrimaryText:   primaryResult.Text,
		CanonicalText: primaryResult.Text,
		Degraded:      degraded,
		Detection: &types.BiasDetection{
			StepNumber:  stepNumber,
			HasBias:     verdict.HasBias,
			Severity:    types.BiasSeverity(verdict.Severity),
			BiasTypes:   verdict.Biases,
			Suggestions: verdict.Suggestions,
			Confidence:  verdict.Confidence,
		},
	}
	if verdict.Severity == "" {
		round.Detection.Severity = types.SeverityNone
	}

	needsCorrection := verdict.HasBias &&
		!severityAcceptable(verdict.Severity) &&
		verdict.Confidence >= p.cfg.BiasConfidenceThreshold

	if !needsCorrection {
		return round, nil
	}

	correctionModel := p.router.ModelFor(llm.TierReasoning, primaryModel)
	correctionMessages := append(append([]llm.Message{}, primaryMessages...),
		llm.Message{Role: "assistant", Content: primaryResult.Text},
		llm.Message{Role: "user", Content: correctionPrompt(verdict)},
	)
	correctionResult, err := p.gateway.Complete(ctx, correctionModel, correctionMessages, llm.Params{Temperature: 0.5, MaxTokens: 2048})
	if err != nil {
		// Correction failure falls back to the original text; the bias
		// detection still records has_bias=true so callers can surface it.
		return round, nil
	}

	round.CanonicalText = correctionResult.Text
	round.Corrected = true
	return round, nil
}

func (p *Pipeline) verify(ctx context.Context, stepNumber int, primaryText string, template []llm.Message, verifierModel string) (Verdict, bool) {
	verifierModel = p.router.ModelFor(llm.TierVerifier, verifierModel)
	messages := append(append([]llm.Message{}, template...),
		llm.Message{Role: "user", Content: verificationPrompt(primaryText)},
	)
	result, err := p.gateway.Complete(ctx, verifierModel, messages, llm.Params{Temperature: 0.2, MaxTokens: 1024})
	if err != nil {
		// Verifier failure degrades to "no bias detected, confidence=0"
		// (spec §4.3 failure semantics); the caller logs a MonitoringEvent.
		return Verdict{HasBias: false, Severity: string(types.SeverityNone), Confidence: 0}, true
	}

	verdict, err := parseVerdict(result.Text)
	if err != nil {
		return Verdict{HasBias: false, Severity: string(types.SeverityNone), Confidence: 0}, true
	}
	return *verdict, false
}

func severityAcceptable(severity string) bool {
	return severity == string(types.SeverityNone) || severity == string(types.SeverityLow) || severity == ""
}

func parseVerdict(raw string) (*Verdict, error) {
	body := strings.TrimSpace(raw)
	const fence = "```"
	if strings.HasPrefix(body, fence) {
		rest := body[len(fence):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.LastIndex(rest, fence); end >= 0 {
			rest = rest[:end]
		}
		body = rest
	}
	var v Verdict
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("parse verifier output: %w", err)
	}
	return &v, nil
}

func verificationPrompt(primaryText string) string {
	return fmt.Sprintf(
		"Classify the following reasoning step for cognitive bias. Respond with a single JSON object "+
			"{has_bias, severity, biases, suggestions, confidence}. Recognized bias tags: %s, %s, %s, %s, %s, %s, %s, %s.\n\nStep:\n%s",
		TagConfirmationBias, TagAnchoringBias, TagAvailabilityBias, TagReasoningError,
		TagOverGeneralization, TagFalseEquivalence, TagCircularReasoning, TagHastyConclusion,
		primaryText,
	)
}

func correctionPrompt(verdict Verdict) string {
	return fmt.Sprintf("The prior step was flagged for %s (severity %s). Suggestions: %s. Produce a corrected step that addresses these issues.",
		strings.Join(verdict.Biases, ", "), verdict.Severity, strings.Join(verdict.Suggestions, "; "))
}
