package knowledge

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"reasoning-orchestrator/internal/types"
)

// SynthesisMirror projects evidence-supported insights into a cross-session
// graph: (Session)-[:PRODUCED]->(Insight), and (Insight)-[:SUPPORTS]->(Insight)
// from each new insight to each insight confirmed in the same synthesis
// delta (synthesis.SupportLink). Action items are not mirrored. This
// is the optional cross-session memory SPEC_FULL's DOMAIN STACK table
// assigns to neo4j-go-driver; the Synthesis Engine itself never reads it
// back within a single session, so a write failure here never fails the
// tool call that produced the insight.
type SynthesisMirror struct {
	client *Neo4jClient
}

// NewSynthesisMirror wraps an already-connected client. Passing a nil
// client is valid: MirrorInsights becomes a no-op.
func NewSynthesisMirror(client *Neo4jClient) *SynthesisMirror {
	return &SynthesisMirror{client: client}
}

// Enabled reports whether a live client backs the mirror.
func (m *SynthesisMirror) Enabled() bool { return m != nil && m.client != nil }

// MirrorInsights upserts sessionID's node and every evidence-supported
// insight from synth, linking each to the session. Errors are returned for
// the caller to log at most; callers must not treat them as tool failures.
func (m *SynthesisMirror) MirrorInsights(ctx context.Context, sessionID string, kind types.SessionKind, synth *types.SynthesisState) error {
	if !m.Enabled() || synth == nil {
		return nil
	}

	_, err := m.client.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			"MERGE (s:Session {id: $id}) SET s.kind = $kind",
			map[string]any{"id": sessionID, "kind": string(kind)}); err != nil {
			return nil, fmt.Errorf("merge session node: %w", err)
		}

		for _, ins := range synth.Insights {
			if !ins.EvidenceSupported {
				continue
			}
			if _, err := tx.Run(ctx,
				`MERGE (i:Insight {id: $id})
				 SET i.text = $text, i.confidence = $confidence, i.source_step = $step
				 MERGE (s:Session {id: $session_id})
				 MERGE (s)-[:PRODUCED]->(i)`,
				map[string]any{
					"id":         ins.ID,
					"text":       ins.Text,
					"confidence": ins.Confidence,
					"step":       ins.SourceStep,
					"session_id": sessionID,
				}); err != nil {
				return nil, fmt.Errorf("merge insight %s: %w", ins.ID, err)
			}
		}
		return nil, nil
	})
	return err
}

// LinkSupport records that fromInsightID's claim supports toInsightID's,
// used when the Synthesis Engine's update algorithm boosts an existing
// insight on corroborating evidence from a later step.
func (m *SynthesisMirror) LinkSupport(ctx context.Context, fromInsightID, toInsightID string) error {
	if !m.Enabled() {
		return nil
	}
	_, err := m.client.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`MATCH (a:Insight {id: $from}), (b:Insight {id: $to})
			 MERGE (a)-[:SUPPORTS]->(b)`,
			map[string]any{"from": fromInsightID, "to": toInsightID})
		return nil, err
	})
	return err
}
