package similarity

import (
	"context"

	"reasoning-orchestrator/internal/embeddings"
	"reasoning-orchestrator/pkg/cache"
)

// embeddingCacheEntries bounds the per-provider embedding cache so a
// long-lived session (many steps, each compared against several priors)
// cannot grow it without limit; a session's reasoning rarely revisits
// more than a few hundred distinct step texts.
const embeddingCacheEntries = 512

// EmbeddingProvider is the optional, embedding-backed Provider (spec
// §9's "implementation-defined" similarity, DOMAIN STACK row for
// chromem-go). It does not itself depend on chromem-go — embedding
// generation is delegated to an embeddings.Embedder — but is grounded on
// the same cosine-similarity pattern chromem-go's collection search
// uses internally, so it's a drop-in swap for callers who configure a
// chromem-backed Embedder (see internal/embeddings).
//
// Embeddings are cached per text in a bounded LRU (embeddingCacheEntries
// entries, no expiry) since the Monitor repeatedly compares the same step
// texts against each other and against the original query; the least
// recently used text is evicted and re-embedded on its next use.
type EmbeddingProvider struct {
	embedder embeddings.Embedder
	ctx      context.Context

	cache *cache.LRU[string, []float32]
}

// NewEmbeddingProvider wraps embedder. ctx bounds embedding calls made
// during Similarity (the Provider interface itself is synchronous).
func NewEmbeddingProvider(ctx context.Context, embedder embeddings.Embedder) *EmbeddingProvider {
	return &EmbeddingProvider{
		embedder: embedder,
		ctx:      ctx,
		cache:    cache.New[string, []float32](&cache.Config{MaxEntries: embeddingCacheEntries}),
	}
}

func (p *EmbeddingProvider) Name() string { return "embedding-cosine:" + p.embedder.Model() }

// Similarity embeds both texts (using the per-provider cache) and
// returns their cosine similarity remapped to [0,1]. On an embedding
// failure it returns 0, which the Monitor treats as a degraded
// detector run rather than a crash (spec §4.2 failure semantics).
func (p *EmbeddingProvider) Similarity(a, b string) float64 {
	va, okA := p.embed(a)
	vb, okB := p.embed(b)
	if !okA || !okB {
		return 0
	}
	return CosineSimilarity(va, vb)
}

func (p *EmbeddingProvider) embed(text string) ([]float32, bool) {
	if v, ok := p.cache.Get(text); ok {
		return v, true
	}

	v, err := p.embedder.Embed(p.ctx, text)
	if err != nil {
		return nil, false
	}

	p.cache.Set(text, v)
	return v, true
}
