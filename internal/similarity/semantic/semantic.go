// Package semantic scores phrases by the cosine similarity of their embeddings.
package semantic

import (
	"context"
	"fmt"
	"math"

	"github.com/spigell/resume-matcher/internal/embedding"
	"github.com/spigell/resume-matcher/internal/normalize"
	"github.com/spigell/resume-matcher/internal/similarity"
)

// DefaultThreshold is used when the configuration leaves the threshold unset.
const DefaultThreshold = 0.60

// Encoder is satisfied by *embedding.Model.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Scorer compares normalized texts through a shared Encoder.
type Scorer struct {
	encoder   Encoder
	threshold float64
}

var (
	_ similarity.Scorer   = (*Scorer)(nil)
	_ similarity.Preparer = (*Scorer)(nil)
)

// New creates a semantic scorer. The threshold is snapped to two decimals.
func New(encoder Encoder, threshold float64) (*Scorer, error) {
	if encoder == nil {
		return nil, fmt.Errorf("semantic scorer requires an embedding model")
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0,1], got %v", threshold)
	}

	return &Scorer{
		encoder:   encoder,
		threshold: math.Round(threshold*100) / 100,
	}, nil
}

func (s *Scorer) Name() string { return similarity.StrategySemantic }

func (s *Scorer) Threshold() float64 { return s.threshold }

// Prepare encodes every text up front so that Similarity only reads the
// model's cache.
func (s *Scorer) Prepare(ctx context.Context, texts ...string) error {
	for _, text := range texts {
		if _, err := s.encoder.Encode(ctx, normalize.Normalize(text)); err != nil {
			return fmt.Errorf("prepare embeddings: %w", err)
		}
	}
	return nil
}

// Similarity returns the cosine similarity of both embeddings, clamped to [0,1].
func (s *Scorer) Similarity(ctx context.Context, query, target string) (float64, error) {
	q, err := s.encoder.Encode(ctx, normalize.Normalize(query))
	if err != nil {
		return 0, fmt.Errorf("encode query: %w", err)
	}

	t, err := s.encoder.Encode(ctx, normalize.Normalize(target))
	if err != nil {
		return 0, fmt.Errorf("encode target: %w", err)
	}

	return math.Max(0, math.Min(1, embedding.Cosine(q, t))), nil
}
