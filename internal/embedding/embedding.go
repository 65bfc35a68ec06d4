// Package embedding provides the sentence-embedding model shared by a
// semantic screening run.
package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrEmptyEmbedding is returned when a provider answers without a vector.
var ErrEmptyEmbedding = errors.New("empty embedding response")

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (Result, error)
}

// Result carries the vector and the token usage reported by the provider.
type Result struct {
	Vector       []float32
	PromptTokens int
	TotalTokens  int
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and
// zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
