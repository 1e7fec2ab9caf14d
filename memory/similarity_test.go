package memory

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8, 0.1}
	if got := CosineSimilarity(v, v); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("Expected similarity 1.0 for identical vectors, got %f", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("Expected similarity 0 for orthogonal vectors, got %f", got)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	if got := CosineSimilarity(a, b); math.Abs(got+1.0) > 1e-6 {
		t.Errorf("Expected similarity -1.0 for opposite vectors, got %f", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{0.1, 0.9, -0.4}
	b := []float32{0.7, 0.2, 0.5}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("Expected similarity to be symmetric")
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("Expected 0 for mismatched lengths, got %f", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("Expected 0 for empty vectors, got %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("Expected 0 for zero vector, got %f", got)
	}
}

func TestKeywordOverlap(t *testing.T) {
	score := keywordOverlap("interest rate discount", "The interest rate depends on credit")
	if math.Abs(score-2.0/3.0) > 1e-6 {
		t.Errorf("Expected overlap 2/3, got %f", score)
	}
	if got := keywordOverlap("a an to", "anything"); got != 0 {
		t.Errorf("Expected 0 when no token is 3+ chars, got %f", got)
	}
	if got := keywordOverlap("cashback", "no rewards here"); got != 0 {
		t.Errorf("Expected 0 for no overlap, got %f", got)
	}
}
