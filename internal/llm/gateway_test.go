package llm

import (
	"context"
	"testing"
	"time"
)

func TestRouter_ModelForUsesExplicitOverride(t *testing.T) {
	r := NewRouter("chat-m", "reasoning-m", "verifier-m", nil)
	if got := r.ModelFor(TierChat, "custom-model"); got != "custom-model" {
		t.Errorf("expected explicit override, got %q", got)
	}
}

func TestRouter_ModelForFallsBackToTierDefault(t *testing.T) {
	r := NewRouter("chat-m", "reasoning-m", "verifier-m", nil)
	if got := r.ModelFor(TierChat, ""); got != "chat-m" {
		t.Errorf("expected chat default, got %q", got)
	}
	if got := r.ModelFor(TierReasoning, ""); got != "reasoning-m" {
		t.Errorf("expected reasoning default, got %q", got)
	}
	if got := r.ModelFor(TierVerifier, ""); got != "verifier-m" {
		t.Errorf("expected verifier default, got %q", got)
	}
}

func TestRouter_IsExtendedReasoning(t *testing.T) {
	r := NewRouter("chat-m", "reasoning-m", "verifier-m", []string{"reasoning-m"})
	if !r.IsExtendedReasoning("reasoning-m") {
		t.Error("expected reasoning-m to use the extended-reasoning call shape")
	}
	if r.IsExtendedReasoning("chat-m") {
		t.Error("expected chat-m to use the standard call shape")
	}
}

func TestRouter_TimeoutFor(t *testing.T) {
	r := NewRouter("chat-m", "reasoning-m", "verifier-m", []string{"reasoning-m"})
	standard := 120 * time.Second
	extended := 600 * time.Second

	if got := r.TimeoutFor("chat-m", standard, extended); got != standard {
		t.Errorf("expected standard timeout for chat-m, got %v", got)
	}
	if got := r.TimeoutFor("reasoning-m", standard, extended); got != extended {
		t.Errorf("expected extended timeout for reasoning-m, got %v", got)
	}
}

func TestMockClient_QueuedResponsesAreOrdered(t *testing.T) {
	m := NewMockClient()
	m.QueueText("m1", "first")
	m.QueueText("m1", "second")

	ctx := context.Background()
	r1, _ := m.Complete(ctx, "m1", nil, Params{})
	r2, _ := m.Complete(ctx, "m1", nil, Params{})
	if r1.Text != "first" || r2.Text != "second" {
		t.Errorf("expected queued responses in order, got %q then %q", r1.Text, r2.Text)
	}
}

func TestMockClient_WildcardQueue(t *testing.T) {
	m := NewMockClient()
	m.QueueText("*", "wildcard response")

	ctx := context.Background()
	r, err := m.Complete(ctx, "anything", nil, Params{})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if r.Text != "wildcard response" {
		t.Errorf("expected wildcard response, got %q", r.Text)
	}
}

func TestMockClient_EchoFallback(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()
	r, err := m.Complete(ctx, "m1", []Message{{Role: "user", Content: "hello"}}, Params{})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if r.Text != "mock response to: hello" {
		t.Errorf("unexpected echo response: %q", r.Text)
	}
}

func TestMockClient_RecordsCalls(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()
	m.Complete(ctx, "m1", []Message{{Role: "user", Content: "a"}}, Params{Temperature: 0.5})
	calls := m.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if calls[0].ModelID != "m1" || calls[0].Params.Temperature != 0.5 {
		t.Errorf("unexpected recorded call: %+v", calls[0])
	}
}

func TestUnknownModelClient(t *testing.T) {
	var c Client = UnknownModelClient{}
	_, err := c.Complete(context.Background(), "nonexistent", nil, Params{})
	if err == nil {
		t.Fatal("expected an UnknownModel error")
	}
}
