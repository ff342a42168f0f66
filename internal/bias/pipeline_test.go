package bias

import (
	"context"
	"testing"

	"reasoning-orchestrator/internal/config"
	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/types"
)

func testRouter() *llm.Router {
	return llm.NewRouter("chat-model", "reasoning-model", "verifier-model", nil)
}

func testConfig() config.BiasConfig {
	return config.BiasConfig{
		BiasConfidenceThreshold: 0.7,
		MaxAnalysisRounds:       5,
	}
}

func TestRunStep_AcceptsLowSeverity(t *testing.T) {
	client := llm.NewMockClient()
	client.QueueText("reasoning-model", "a reasonable primary step")
	client.QueueText("verifier-model", `{"has_bias":false,"severity":"none","confidence":0.9}`)

	p := New(client, testRouter(), testConfig())
	round, err := p.RunStep(context.Background(), 1, []llm.Message{{Role: "user", Content: "q"}}, nil, "", "")
	if err != nil {
		t.Fatalf("RunStep failed: %v", err)
	}
	if round.Corrected {
		t.Error("expected no correction for a low-severity verdict")
	}
	if round.CanonicalText != "a reasonable primary step" {
		t.Errorf("expected canonical text to equal primary text, got %q", round.CanonicalText)
	}
	if round.Detection.HasBias {
		t.Error("expected has_bias false")
	}
}

func TestRunStep_CorrectsHighSeverityBias(t *testing.T) {
	client := llm.NewMockClient()
	client.QueueText("reasoning-model", "startups should always adopt microservices")
	client.QueueText("verifier-model", `{"has_bias":true,"severity":"high","biases":["confirmation-bias"],"suggestions":["consider team size"],"confidence":0.85}`)
	client.QueueText("reasoning-model", "given the 5-person team, a monolith is more appropriate")

	p := New(client, testRouter(), testConfig())
	round, err := p.RunStep(context.Background(), 1, []llm.Message{{Role: "user", Content: "q"}}, nil, "", "")
	if err != nil {
		t.Fatalf("RunStep failed: %v", err)
	}
	if !round.Corrected {
		t.Fatal("expected a correction to be applied")
	}
	if round.CanonicalText == round.PrimaryText {
		t.Error("expected canonical text to differ from the flagged primary text")
	}
	if round.CanonicalText != "given the 5-person team, a monolith is more appropriate" {
		t.Errorf("unexpected canonical text: %q", round.CanonicalText)
	}
	if !round.Detection.HasBias || round.Detection.Severity != types.SeverityHigh {
		t.Errorf("expected a recorded high-severity bias detection, got %+v", round.Detection)
	}
}

func TestRunStep_LowConfidenceSkipsCorrectionDespiteHighSeverity(t *testing.T) {
	client := llm.NewMockClient()
	client.QueueText("reasoning-model", "primary text")
	client.QueueText("verifier-model", `{"has_bias":true,"severity":"high","biases":["anchoring-bias"],"confidence":0.3}`)

	p := New(client, testRouter(), testConfig())
	round, err := p.RunStep(context.Background(), 1, []llm.Message{{Role: "user", Content: "q"}}, nil, "", "")
	if err != nil {
		t.Fatalf("RunStep failed: %v", err)
	}
	if round.Corrected {
		t.Error("expected no correction when verifier confidence is below the bias threshold")
	}
}

func TestRunStep_VerifierFailureDegrades(t *testing.T) {
	client := llm.NewMockClient()
	client.QueueText("reasoning-model", "primary text")
	client.QueueError("verifier-model", context.DeadlineExceeded)

	p := New(client, testRouter(), testConfig())
	round, err := p.RunStep(context.Background(), 1, []llm.Message{{Role: "user", Content: "q"}}, nil, "", "")
	if err != nil {
		t.Fatalf("RunStep should not fail the step on verifier failure: %v", err)
	}
	if !round.Degraded {
		t.Error("expected Degraded=true on verifier failure")
	}
	if round.Detection.HasBias {
		t.Error("expected has_bias=false on degraded verification")
	}
}

func TestRunStep_VerifierUnparseableOutputDegrades(t *testing.T) {
	client := llm.NewMockClient()
	client.QueueText("reasoning-model", "primary text")
	client.QueueText("verifier-model", "not json")

	p := New(client, testRouter(), testConfig())
	round, err := p.RunStep(context.Background(), 1, []llm.Message{{Role: "user", Content: "q"}}, nil, "", "")
	if err != nil {
		t.Fatalf("RunStep failed: %v", err)
	}
	if !round.Degraded {
		t.Error("expected Degraded=true on unparseable verifier output")
	}
}

func TestRunStep_PrimaryFailureAbortsStep(t *testing.T) {
	client := llm.NewMockClient()
	client.QueueError("reasoning-model", context.DeadlineExceeded)

	p := New(client, testRouter(), testConfig())
	_, err := p.RunStep(context.Background(), 1, []llm.Message{{Role: "user", Content: "q"}}, nil, "", "")
	if err == nil {
		t.Fatal("expected primary generation failure to abort the step")
	}
}

func TestRunStep_CorrectionFailureFallsBackToPrimaryText(t *testing.T) {
	client := llm.NewMockClient()
	client.QueueText("reasoning-model", "biased text")
	client.QueueText("verifier-model", `{"has_bias":true,"severity":"high","confidence":0.9}`)
	client.QueueError("reasoning-model", context.DeadlineExceeded)

	p := New(client, testRouter(), testConfig())
	round, err := p.RunStep(context.Background(), 1, []llm.Message{{Role: "user", Content: "q"}}, nil, "", "")
	if err != nil {
		t.Fatalf("RunStep should not fail when correction generation fails: %v", err)
	}
	if round.Corrected {
		t.Error("expected Corrected=false when the correction call itself fails")
	}
	if round.CanonicalText != "biased text" {
		t.Errorf("expected canonical text to fall back to the primary text, got %q", round.CanonicalText)
	}
	if !round.Detection.HasBias {
		t.Error("expected the bias detection to still record has_bias=true")
	}
}

func TestSeverityAcceptable(t *testing.T) {
	if !SeverityAcceptable("none") || !SeverityAcceptable("low") || !SeverityAcceptable("") {
		t.Error("expected none/low/empty severities to be acceptable")
	}
	if SeverityAcceptable("medium") || SeverityAcceptable("high") || SeverityAcceptable("critical") {
		t.Error("expected medium/high/critical severities to not be acceptable")
	}
}
