package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-matcher/internal/similarity"
)

func TestTokenSetRatio_SubsetScoresFull(t *testing.T) {
	text := "I have 3 years experience in Python and SQL, based in Pune"

	assert.Equal(t, 1.0, TokenSetRatio("Python", text))
	assert.Equal(t, 1.0, TokenSetRatio(" sql ", text))
	assert.Equal(t, 1.0, TokenSetRatio("SQL Python", text), "order must not matter")
	assert.Equal(t, 1.0, TokenSetRatio("python python", text), "duplicates must not matter")
}

func TestTokenSetRatio_Symmetric(t *testing.T) {
	a := "machine learning engineer"
	b := "senior engineer for machine vision"
	assert.Equal(t, TokenSetRatio(a, b), TokenSetRatio(b, a))
}

func TestTokenSetRatio_MissingPhrase(t *testing.T) {
	score := TokenSetRatio("Python", "5 years Java developer, Mumbai")
	assert.LessOrEqual(t, score, Threshold)
}

func TestTokenSetRatio_PartialOverlap(t *testing.T) {
	// "data" vs "data science" is 8/16, "data science" vs "data engineering"
	// shares "data " plus "ine": 16/28.
	score := TokenSetRatio("data science", "data engineering")
	assert.InDelta(t, 0.57, score, 0.001)
}

func TestTokenSetRatio_Repetition(t *testing.T) {
	assert.Equal(t, 1.0, TokenSetRatio("fuzzy was a bear", "fuzzy fuzzy was a bear"))
	assert.Equal(t, 1.0, TokenSetRatio("Wuzzy Fuzzy", "fuzzy wuzzy was a bear"))
}

func TestTokenSetRatio_Empty(t *testing.T) {
	assert.Equal(t, 0.0, TokenSetRatio("", "anything"))
	assert.Equal(t, 0.0, TokenSetRatio("!!!", "anything"))
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 1.0, PartialRatio("Pune", "software engineer, pune, india"))
	assert.Equal(t, 1.0, PartialRatio("software engineer, pune, india", "PUNE"))
	assert.Equal(t, 0.0, PartialRatio("", "pune"))
	assert.Less(t, PartialRatio("Chennai", "pune, india"), Threshold)
}

func TestScorer(t *testing.T) {
	s := New()
	require.Equal(t, similarity.StrategyLexical, s.Name())
	require.Equal(t, 0.70, s.Threshold())

	v, err := s.Similarity(context.Background(), "Go", "Backend developer (Go, Kubernetes)")
	require.NoError(t, err)
	assert.True(t, similarity.Matched(s, v))
}
