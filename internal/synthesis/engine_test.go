package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reasoning-orchestrator/internal/config"
)

func testBiasConfig() config.BiasConfig {
	return config.BiasConfig{
		ReadyConfidenceThreshold: 0.75,
		ReadyClarityThreshold:    0.70,
	}
}

func TestFirstVersion(t *testing.T) {
	v := FirstVersion("initial understanding")
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, 1, v.TriggerStep)
	assert.Equal(t, "initial understanding", v.CurrentUnderstanding)
}

func TestUpdate_FirstUpdateFromNilPrior(t *testing.T) {
	e := New(testBiasConfig())
	delta := &Delta{
		UnderstandingUpdate: "caches reduce latency",
		NewInsights:         []DeltaInsight{{Text: "LRU is a good default", Confidence: 0.7}},
		UpdatedConfidence:   0.6,
		UpdatedClarity:      0.5,
	}
	state, _ := e.Update(nil, 1, "raw", delta)

	assert.Equal(t, 1, state.Version)
	require.Len(t, state.Insights, 1)
	// confidence = 0.6*0.6 + 0.4*0 = 0.36
	assert.InDelta(t, 0.36, state.Confidence, 0.01)
}

func TestUpdate_VersionIncrementsMonotonically(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{UpdatedConfidence: 0.5, UpdatedClarity: 0.5})
	v2, _ := e.Update(v1, 2, "", &Delta{UpdatedConfidence: 0.5, UpdatedClarity: 0.5})
	v3, _ := e.Update(v2, 3, "", &Delta{UpdatedConfidence: 0.5, UpdatedClarity: 0.5})

	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, 3, v3.Version)
}

func TestUpdate_KeepsPriorUnderstandingWhenDeltaEmpty(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{UnderstandingUpdate: "first understanding"})
	v2, _ := e.Update(v1, 2, "", &Delta{UnderstandingUpdate: ""})

	assert.Equal(t, "first understanding", v2.CurrentUnderstanding)
}

func TestUpdate_ConfirmedInsightBoostsConfidence(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{
		NewInsights: []DeltaInsight{{Text: "caching helps", Confidence: 0.8}},
	})
	v2, _ := e.Update(v1, 2, "", &Delta{
		ConfirmedInsights: []string{"caching helps"},
	})

	require.Len(t, v2.Insights, 1)
	assert.Greater(t, v2.Insights[0].Confidence, 0.8)
}

func TestUpdate_ConfirmationAlongsideNewEvidenceProducesSupportLink(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{
		NewInsights: []DeltaInsight{{Text: "caching helps", Confidence: 0.8}},
	})
	boostedID := v1.Insights[0].ID

	v2, links := e.Update(v1, 2, "", &Delta{
		ConfirmedInsights: []string{"caching helps"},
		NewInsights:       []DeltaInsight{{Text: "benchmarks confirm it", Confidence: 0.7}},
	})

	require.Len(t, v2.Insights, 2)
	require.Len(t, links, 1, "expected the new corroborating insight to link to the boosted one")
	assert.Equal(t, boostedID, links[0].ToInsightID)
	assert.NotEqual(t, boostedID, links[0].FromInsightID)
}

func TestUpdate_ConfirmedInsightBoostClampsToOne(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{
		NewInsights: []DeltaInsight{{Text: "near certain", Confidence: 0.95}},
	})
	v2, _ := e.Update(v1, 2, "", &Delta{
		ConfirmedInsights: []string{"near certain"},
	})
	require.Len(t, v2.Insights, 1)
	assert.LessOrEqual(t, v2.Insights[0].Confidence, 1.0)
}

func TestUpdate_InvalidatedInsightDropped(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{
		NewInsights: []DeltaInsight{
			{Text: "keep me", Confidence: 0.5},
			{Text: "drop me", Confidence: 0.5},
		},
	})
	v2, _ := e.Update(v1, 2, "", &Delta{
		InvalidatedInsights: []string{"drop me"},
	})

	require.Len(t, v2.Insights, 1)
	assert.Equal(t, "keep me", v2.Insights[0].Text)
}

func TestUpdate_ActionsMergeByTextAndEscalatePriority(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{
		NewActions: []DeltaAction{{Text: "write tests", Priority: "low"}},
	})
	v2, _ := e.Update(v1, 2, "", &Delta{
		NewActions: []DeltaAction{{Text: "write tests", Priority: "high"}},
	})

	require.Len(t, v2.Actions, 1)
	assert.Equal(t, "high", string(v2.Actions[0].Priority))
}

func TestUpdate_ActionsDoNotDowngradePriority(t *testing.T) {
	e := New(testBiasConfig())
	v1, _ := e.Update(nil, 1, "", &Delta{
		NewActions: []DeltaAction{{Text: "ship it", Priority: "high"}},
	})
	v2, _ := e.Update(v1, 2, "", &Delta{
		NewActions: []DeltaAction{{Text: "ship it", Priority: "low"}},
	})
	require.Len(t, v2.Actions, 1)
	assert.Equal(t, "high", string(v2.Actions[0].Priority))
}

func TestUpdate_ReadyForDecisionRequiresThresholdsAndFlag(t *testing.T) {
	e := New(testBiasConfig())

	belowThreshold, _ := e.Update(nil, 1, "", &Delta{UpdatedConfidence: 0.9, UpdatedClarity: 0.9, ReadyForDecision: true})
	// weighted average from zero prior: 0.6*0.9 = 0.54, below 0.75 threshold.
	assert.False(t, belowThreshold.ReadyForDecision, "expected ready_for_decision false when the weighted average hasn't crossed the threshold yet")

	// Drive confidence/clarity above threshold over repeated updates.
	state := belowThreshold
	for i := 0; i < 5; i++ {
		state, _ = e.Update(state, i+2, "", &Delta{UpdatedConfidence: 0.95, UpdatedClarity: 0.95, ReadyForDecision: true})
	}
	assert.True(t, state.ReadyForDecision, "expected ready_for_decision true once confidence/clarity converge above threshold")
}

func TestUpdate_ReadyForDecisionFalseWhenModelFlagFalse(t *testing.T) {
	e := New(testBiasConfig())
	s, _ := e.Update(nil, 1, "", &Delta{UpdatedConfidence: 1.0, UpdatedClarity: 1.0, ReadyForDecision: false})
	for i := 0; i < 5; i++ {
		s, _ = e.Update(s, i+2, "", &Delta{UpdatedConfidence: 1.0, UpdatedClarity: 1.0, ReadyForDecision: false})
	}
	assert.False(t, s.ReadyForDecision, "expected ready_for_decision false when the model never signals readiness, even with high scores")
}

func TestUpdate_InsightsAndActionsHaveNonEmptyText(t *testing.T) {
	e := New(testBiasConfig())
	state, _ := e.Update(nil, 1, "", &Delta{
		NewInsights: []DeltaInsight{{Text: "a real insight", Confidence: 0.5}},
		NewActions:  []DeltaAction{{Text: "a real action", Priority: "medium"}},
	})
	for _, ins := range state.Insights {
		assert.NotEmpty(t, ins.Text)
		assert.GreaterOrEqual(t, ins.Confidence, 0.0)
		assert.LessOrEqual(t, ins.Confidence, 1.0)
	}
	for _, act := range state.Actions {
		assert.NotEmpty(t, act.Text)
	}
}
