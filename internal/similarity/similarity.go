// Package similarity defines the contract shared by the matching strategies.
package similarity

import (
	"context"
	"fmt"
	"strings"
)

const (
	StrategyLexical  = "lexical"
	StrategySemantic = "semantic"
)

// Scorer computes how close a requirement phrase is to a target text.
// Values are in [0,1]; a phrase counts as matched when the value is strictly
// greater than Threshold.
type Scorer interface {
	Name() string
	Threshold() float64
	Similarity(ctx context.Context, query, target string) (float64, error)
}

// Preparer is implemented by scorers that can do their expensive work ahead
// of scoring, e.g. encode a résumé and all phrases once.
type Preparer interface {
	Prepare(ctx context.Context, texts ...string) error
}

// Matched reports whether value passes the scorer's threshold.
func Matched(s Scorer, value float64) bool {
	return value > s.Threshold()
}

// ParseStrategy validates a configured strategy name.
func ParseStrategy(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyLexical:
		return StrategyLexical, nil
	case StrategySemantic:
		return StrategySemantic, nil
	default:
		return "", fmt.Errorf("unsupported matching strategy: %q", name)
	}
}
