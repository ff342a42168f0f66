// Package knowledge holds the Monitor's optional cross-step vector index
// (chromem-go) and the Synthesis Engine's optional cross-session mirror
// (neo4j), per SPEC_FULL's DOMAIN STACK table. Both degrade silently when
// unconfigured: the reasoning tools never require either to be present.
package knowledge

import (
	"context"
	"fmt"
	"log"

	chromem "github.com/philippgille/chromem-go"

	"reasoning-orchestrator/internal/embeddings"
)

// StepIndex is a per-session chromem-go collection of step texts, used by
// the Metacognitive Monitor's circular-reasoning detector (via the server's
// monitorInputWithIndex) to find the most similar prior step without
// recomputing cosine similarity against every candidate by hand: chromem's
// QueryEmbedding already does the nearest-neighbor search and returns a
// similarity score directly.
//
// Grounded on the teacher's internal/knowledge/vector_store.go; adapted
// from its Entity/Relationship documents to session step text, and from a
// single shared collection to one collection per session so a session's
// steps never pollute another session's nearest-neighbor search.
type StepIndex struct {
	db       *chromem.DB
	embedder embeddings.Embedder
}

// StepIndexConfig configures the index. PersistPath empty means in-memory
// only (lost on restart, matching spec §6's "absence degrades silently").
type StepIndexConfig struct {
	PersistPath string
	Embedder    embeddings.Embedder
}

// NewStepIndex opens (or creates) the chromem-go database backing the
// index. A nil Embedder is valid: Add/Query become no-ops returning
// apperr-free empty results so the Monitor falls back to the Jaccard
// provider instead of failing the step.
func NewStepIndex(cfg StepIndexConfig) (*StepIndex, error) {
	var db *chromem.DB
	var err error

	if cfg.PersistPath != "" {
		db, err = chromem.NewPersistentDB(cfg.PersistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent step index: %w", err)
		}
		log.Printf("[DEBUG] step index persisted at %s", cfg.PersistPath)
	} else {
		db = chromem.NewDB()
	}

	return &StepIndex{db: db, embedder: cfg.Embedder}, nil
}

func collectionName(sessionID string) string { return "session:" + sessionID }

func (si *StepIndex) collection(ctx context.Context, sessionID string) (*chromem.Collection, error) {
	name := collectionName(sessionID)
	if c := si.db.GetCollection(name, nil); c != nil {
		return c, nil
	}
	return si.db.CreateCollection(name, nil, nil)
}

// AddStep embeds stepText and stores it under stepID in sessionID's
// collection. A no-op (nil error) when no embedder is configured.
func (si *StepIndex) AddStep(ctx context.Context, sessionID, stepID string, stepNumber int, stepText string) error {
	if si.embedder == nil {
		return nil
	}
	collection, err := si.collection(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session collection: %w", err)
	}
	embedding, err := si.embedder.Embed(ctx, stepText)
	if err != nil {
		return fmt.Errorf("embed step text: %w", err)
	}
	return collection.AddDocument(ctx, chromem.Document{
		ID:       stepID,
		Content:  stepText,
		Metadata: map[string]string{"step_number": fmt.Sprintf("%d", stepNumber)},
		Embedding: embedding,
	})
}

// NearestPrior returns the step in sessionID's collection most similar to
// stepText, capped at windowSize results, and whether any prior step
// exists at all. Returns ok=false (not an error) when the session has no
// indexed steps yet or no embedder is configured.
func (si *StepIndex) NearestPrior(ctx context.Context, sessionID, stepText string, windowSize int) (chromem.Result, bool, error) {
	if si.embedder == nil {
		return chromem.Result{}, false, nil
	}
	name := collectionName(sessionID)
	collection := si.db.GetCollection(name, nil)
	if collection == nil || collection.Count() == 0 {
		return chromem.Result{}, false, nil
	}
	if windowSize <= 0 {
		windowSize = 5
	}
	if windowSize > collection.Count() {
		windowSize = collection.Count()
	}

	queryEmbedding, err := si.embedder.Embed(ctx, stepText)
	if err != nil {
		return chromem.Result{}, false, fmt.Errorf("embed query step: %w", err)
	}
	results, err := collection.QueryEmbedding(ctx, queryEmbedding, windowSize, nil, nil)
	if err != nil {
		return chromem.Result{}, false, fmt.Errorf("query step index: %w", err)
	}
	if len(results) == 0 {
		return chromem.Result{}, false, nil
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Similarity > best.Similarity {
			best = r
		}
	}
	return best, true, nil
}

// DropSession removes a session's collection. Session eviction
// (session.Manager.EvictExpired) does not call it, so collections of
// evicted sessions remain in the index.
func (si *StepIndex) DropSession(sessionID string) {
	_ = si.db.DeleteCollection(collectionName(sessionID))
}
