// Package lexical implements fuzzy keyword matching over token sets.
package lexical

import (
	"context"

	"github.com/spigell/resume-matcher/internal/similarity"
)

// Threshold is fixed for the lexical strategy; it is not configurable.
const Threshold = 0.70

// Scorer matches phrases with TokenSetRatio.
type Scorer struct{}

var _ similarity.Scorer = Scorer{}

func New() Scorer { return Scorer{} }

func (Scorer) Name() string { return similarity.StrategyLexical }

func (Scorer) Threshold() float64 { return Threshold }

func (Scorer) Similarity(_ context.Context, query, target string) (float64, error) {
	return TokenSetRatio(query, target), nil
}
