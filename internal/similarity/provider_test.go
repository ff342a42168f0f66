package similarity

import "testing"

func TestJaccardProvider_IdenticalText(t *testing.T) {
	p := NewJaccardProvider(3)
	sim := p.Similarity("the quick brown fox jumps", "the quick brown fox jumps")
	if sim != 1.0 {
		t.Errorf("expected identical text to score 1.0, got %v", sim)
	}
}

func TestJaccardProvider_DisjointText(t *testing.T) {
	p := NewJaccardProvider(3)
	sim := p.Similarity("alpha beta gamma delta epsilon", "zeta eta theta iota kappa")
	if sim != 0 {
		t.Errorf("expected disjoint text to score 0, got %v", sim)
	}
}

func TestJaccardProvider_PartialOverlap(t *testing.T) {
	p := NewJaccardProvider(3)
	a := "the quick brown fox jumps over the lazy dog"
	b := "the quick brown fox leaps over a sleepy dog"
	sim := p.Similarity(a, b)
	if sim <= 0 || sim >= 1 {
		t.Errorf("expected partial overlap score in (0,1), got %v", sim)
	}
}

func TestJaccardProvider_Monotone(t *testing.T) {
	p := NewJaccardProvider(3)
	query := "design a caching layer for a key value store"
	close := "design a caching layer for a key value database"
	far := "the weather today is sunny with a chance of rain"

	simClose := p.Similarity(query, close)
	simFar := p.Similarity(query, far)
	if simClose <= simFar {
		t.Errorf("expected closer text to score higher: close=%v far=%v", simClose, simFar)
	}
}

func TestJaccardProvider_EmptyInputs(t *testing.T) {
	p := NewJaccardProvider(3)
	if sim := p.Similarity("", ""); sim != 1.0 {
		t.Errorf("expected both-empty to score 1.0, got %v", sim)
	}
	if sim := p.Similarity("some text", ""); sim != 0.0 {
		t.Errorf("expected one-empty to score 0.0, got %v", sim)
	}
}

func TestJaccardProvider_ShortTextFallsBackToWholePhrase(t *testing.T) {
	p := NewJaccardProvider(3)
	sim := p.Similarity("hello world", "hello world")
	if sim != 1.0 {
		t.Errorf("expected short identical phrases to score 1.0, got %v", sim)
	}
}

func TestJaccardProvider_DefaultShingleSize(t *testing.T) {
	p := NewJaccardProvider(0)
	if p.ShingleSize != 3 {
		t.Errorf("expected default shingle size 3, got %d", p.ShingleSize)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	if sim := CosineSimilarity(a, b); sim != 1.0 {
		t.Errorf("expected identical vectors to score 1.0, got %v", sim)
	}

	c := []float32{0, 1, 0}
	if sim := CosineSimilarity(a, c); sim != 0.5 {
		t.Errorf("expected orthogonal vectors remapped to 0.5, got %v", sim)
	}

	d := []float32{-1, 0, 0}
	if sim := CosineSimilarity(a, d); sim != 0 {
		t.Errorf("expected opposite vectors remapped to 0, got %v", sim)
	}
}

func TestCosineSimilarity_MismatchedLength(t *testing.T) {
	if sim := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); sim != 0 {
		t.Errorf("expected mismatched-length vectors to score 0, got %v", sim)
	}
}
