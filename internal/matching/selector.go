package matching

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/similarity"
)

// ErrNoPositions is returned when there is nothing to match against.
var ErrNoPositions = errors.New("no positions to match against")

// Selector picks the best position for a résumé.
type Selector struct {
	matcher *Matcher
	logger  *zap.Logger
}

func NewSelector(matcher *Matcher, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{matcher: matcher, logger: logger}
}

// Scorer returns the similarity strategy the selector scores with.
func (s *Selector) Scorer() similarity.Scorer { return s.matcher.Scorer() }

// Select scores every position and returns the one with the strictly highest
// total. The first position reaching a maximum wins ties, and a result is
// returned even when every position scores zero.
func (s *Selector) Select(ctx context.Context, resumeID, text string, positions []Position) (Result, error) {
	if len(positions) == 0 {
		return Result{}, ErrNoPositions
	}

	bestIdx := -1
	var best Signals

	for idx, position := range positions {
		signals, err := s.matcher.Score(ctx, text, position)
		if err != nil {
			return Result{}, fmt.Errorf("scoring position %q: %w", position.Title, err)
		}

		s.logger.Debug("position scored",
			zap.String("resume_id", resumeID),
			zap.String("position", position.Title),
			zap.Bool("location_match", signals.LocationMatch),
			zap.Bool("experience_match", signals.ExperienceMatch),
			zap.Int("experience_years", signals.ExperienceYears),
			zap.Int("expected_experience", signals.ExpectedExperience),
			zap.Float64("qualification_fraction", signals.QualificationMatchFraction),
			zap.Float64("title_similarity", signals.TitleSimilarity),
			zap.Float64("location_similarity", signals.LocationSimilarity),
			zap.Int("total", signals.Total()),
		)

		if bestIdx == -1 || signals.Total() > best.Total() {
			bestIdx = idx
			best = signals
		}
	}

	return Result{
		ResumeID:                  resumeID,
		BestPositionTitle:         positions[bestIdx].Title,
		LocationMatch:             best.LocationMatch,
		ExperienceMatch:           best.ExperienceMatch,
		QualificationMatch:        best.QualificationMatch(),
		Decision:                  best.Decision(),
		QualificationMatchPercent: int(math.Round(best.QualificationMatchFraction * 100)),
		MatchedQualifications:     best.MatchedQualifications,
		TotalScore:                best.Total(),
	}, nil
}
