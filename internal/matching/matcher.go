package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/resume-matcher/internal/normalize"
	"github.com/spigell/resume-matcher/internal/similarity"
	"github.com/spigell/resume-matcher/internal/similarity/lexical"
)

const (
	// QualificationPassFraction is the share of essential qualifications a
	// résumé must match. It is the same for every strategy.
	QualificationPassFraction = 0.60
	// ExperienceTolerance is how many years the claim may differ from the
	// requirement in either direction.
	ExperienceTolerance = 1

	factorCount = 3
)

// Extractor pulls the structured signals out of free text.
// normalize.Heuristics is the default implementation.
type Extractor interface {
	ExperienceYears(text string) int
	InferLocation(text string) string
	ExpectedExperience(field string) int
}

// Matcher scores a résumé against a single position.
type Matcher struct {
	scorer    similarity.Scorer
	extractor Extractor
}

func NewMatcher(scorer similarity.Scorer, extractor Extractor) *Matcher {
	if extractor == nil {
		extractor = normalize.Heuristics{}
	}
	return &Matcher{scorer: scorer, extractor: extractor}
}

// Scorer returns the active similarity strategy.
func (m *Matcher) Scorer() similarity.Scorer { return m.scorer }

// Score computes the location, experience and qualification factors.
func (m *Matcher) Score(ctx context.Context, resumeText string, p Position) (Signals, error) {
	text := normalize.Normalize(resumeText)
	inferred := m.extractor.InferLocation(resumeText)

	// An empty location is a substring of everything and therefore matches.
	location := normalize.Normalize(strings.TrimSpace(p.Location))

	signals := Signals{
		LocationMatch:          strings.Contains(text, location) || strings.Contains(inferred, location),
		ExperienceYears:        m.extractor.ExperienceYears(resumeText),
		ExpectedExperience:     m.extractor.ExpectedExperience(p.ExperienceRequirement),
		InferredLocation:       inferred,
		LocationSimilarity:     lexical.PartialRatio(p.Location, inferred),
		MatchedQualifications:  []string{},
		qualificationsRequired: len(p.EssentialQualifications),
	}
	signals.ExperienceMatch = abs(signals.ExperienceYears-signals.ExpectedExperience) <= ExperienceTolerance

	for _, phrase := range p.EssentialQualifications {
		value, err := m.scorer.Similarity(ctx, phrase, resumeText)
		if err != nil {
			return Signals{}, fmt.Errorf("qualification %q: %w", phrase, err)
		}
		if similarity.Matched(m.scorer, value) {
			signals.MatchedQualifications = append(signals.MatchedQualifications, phrase)
		}
	}
	if total := len(p.EssentialQualifications); total > 0 {
		signals.QualificationMatchFraction = float64(len(signals.MatchedQualifications)) / float64(total)
	}

	if strings.TrimSpace(p.Title) != "" {
		title, err := m.scorer.Similarity(ctx, p.Title, resumeText)
		if err != nil {
			return Signals{}, fmt.Errorf("title %q: %w", p.Title, err)
		}
		signals.TitleSimilarity = title
	}

	return signals, nil
}

// RequirementTexts lists every phrase the matcher will compare for the given
// positions, in order and without duplicates.
func RequirementTexts(positions []Position) []string {
	seen := make(map[string]struct{})
	texts := make([]string, 0)
	add := func(s string) {
		if strings.TrimSpace(s) == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		texts = append(texts, s)
	}

	for _, p := range positions {
		add(p.Title)
		for _, q := range p.EssentialQualifications {
			add(q)
		}
	}
	return texts
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
