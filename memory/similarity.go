package memory

import (
	"math"
	"strings"
)

// CosineSimilarity returns the normalized dot product of a and b in
// [-1, 1]. Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keywordOverlap scores content by the fraction of query tokens found in
// it as substrings. Used as the ranking fallback when the query cannot
// be embedded.
func keywordOverlap(query, content string) float64 {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	found := 0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

// tokenize lowercases and splits text into words of 3+ characters.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
