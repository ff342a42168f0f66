package synthesis

import "testing"

func TestParseDelta_PlainJSON(t *testing.T) {
	raw := `{"understanding_update":"caching improves latency","new_insights":[{"text":"LRU works well","confidence":0.8,"evidence_supported":true}],"updated_confidence":0.6,"updated_clarity":0.5,"ready_for_decision":false}`
	d, err := ParseDelta(raw)
	if err != nil {
		t.Fatalf("ParseDelta failed: %v", err)
	}
	if d.UnderstandingUpdate != "caching improves latency" {
		t.Errorf("unexpected understanding_update: %q", d.UnderstandingUpdate)
	}
	if len(d.NewInsights) != 1 || d.NewInsights[0].Text != "LRU works well" {
		t.Errorf("unexpected new_insights: %+v", d.NewInsights)
	}
}

func TestParseDelta_FencedJSON(t *testing.T) {
	raw := "```json\n{\"understanding_update\":\"x\",\"updated_confidence\":0.5,\"updated_clarity\":0.5}\n```"
	d, err := ParseDelta(raw)
	if err != nil {
		t.Fatalf("ParseDelta failed on fenced input: %v", err)
	}
	if d.UnderstandingUpdate != "x" {
		t.Errorf("unexpected understanding_update: %q", d.UnderstandingUpdate)
	}
}

func TestParseDelta_InvalidJSON(t *testing.T) {
	_, err := ParseDelta("not json at all")
	if err == nil {
		t.Fatal("expected a parse error for non-JSON input")
	}
}

func TestParseDelta_EmptyInsightTextRejected(t *testing.T) {
	raw := `{"new_insights":[{"text":"","confidence":0.5}]}`
	_, err := ParseDelta(raw)
	if err == nil {
		t.Fatal("expected an error for an empty-text insight")
	}
}

func TestParseDelta_EmptyActionTextRejected(t *testing.T) {
	raw := `{"new_actions":[{"text":"","priority":"high"}]}`
	_, err := ParseDelta(raw)
	if err == nil {
		t.Fatal("expected an error for an empty-text action")
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-0.5: 0, 0: 0, 0.5: 0.5, 1: 1, 1.5: 1}
	for in, want := range cases {
		if got := clamp01(in); got != want {
			t.Errorf("clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}
