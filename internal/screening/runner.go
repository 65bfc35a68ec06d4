package screening

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/metrics"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/similarity"
)

const previewLength = 120

// Options tune a batch run.
type Options struct {
	RunID            string
	ReportUnreadable bool
}

// Batch is the outcome of one run.
type Batch struct {
	RunID    string
	Strategy string
	Results  []matching.Result
	// Failed lists résumés skipped because scoring returned an error.
	Failed []string
}

// Runner matches screened résumés against the positions table.
type Runner struct {
	selector *matching.Selector
	logger   *zap.Logger
	opts     Options
}

func NewRunner(selector *matching.Selector, log *zap.Logger, opts Options) *Runner {
	return &Runner{
		selector: selector,
		logger:   logger.WithFields(log),
		opts:     opts,
	}
}

// Run emits one result per readable résumé, in input order, followed by the
// unreadable audit rows when enabled. A résumé linked to an earlier duplicate
// takes a copy of that result under its own ID. A résumé that fails to score is logged
// and skipped; only cancellation and an empty positions table stop the run.
func (r *Runner) Run(ctx context.Context, resumes *resume.Resumes, unreadable []*resume.Resume, positions []matching.Position) (*Batch, error) {
	if len(positions) == 0 {
		return nil, matching.ErrNoPositions
	}

	scorer := r.selector.Scorer()
	batch := &Batch{
		RunID:    r.opts.RunID,
		Strategy: scorer.Name(),
		Results:  make([]matching.Result, 0, resumes.Len()+len(unreadable)),
	}
	requirements := matching.RequirementTexts(positions)
	matched := make(map[string]matching.Result, resumes.Len())

	for _, item := range resumes.Items {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		log := r.logger.With(zap.String("resume_id", item.ID))

		if original, ok := matched[item.DuplicateOf]; ok && item.DuplicateOf != "" {
			result := original
			result.ResumeID = item.ID
			log.Info("resume result reused", zap.String("duplicate_of", item.DuplicateOf))
			metrics.ResumesTotal.WithLabelValues("matched").Inc()
			metrics.DecisionsTotal.WithLabelValues(batch.Strategy, string(result.Decision)).Inc()
			batch.Results = append(batch.Results, result)
			continue
		}

		log.Debug("matching resume", zap.String("text", logger.Preview(item.Text, previewLength)))

		result, err := r.match(ctx, scorer, item, requirements, positions)
		if err != nil {
			if ctx.Err() != nil {
				return batch, ctx.Err()
			}
			log.Warn("matching resume failed", zap.Error(err))
			metrics.ResumesTotal.WithLabelValues("failed").Inc()
			batch.Failed = append(batch.Failed, item.ID)
			continue
		}

		log.Info("resume matched",
			zap.String("position", result.BestPositionTitle),
			zap.Int("total_score", result.TotalScore),
			zap.Int("qualification_match_percent", result.QualificationMatchPercent),
			zap.String("decision", string(result.Decision)),
		)
		metrics.ResumesTotal.WithLabelValues("matched").Inc()
		metrics.DecisionsTotal.WithLabelValues(batch.Strategy, string(result.Decision)).Inc()
		matched[item.ID] = result
		batch.Results = append(batch.Results, result)
	}

	for _, item := range unreadable {
		metrics.ResumesTotal.WithLabelValues("unreadable").Inc()
		if !r.opts.ReportUnreadable {
			continue
		}
		metrics.DecisionsTotal.WithLabelValues(batch.Strategy, string(matching.Unreadable)).Inc()
		batch.Results = append(batch.Results, matching.UnreadableResult(item.ID))
	}

	r.logger.Info("batch finished",
		zap.Int("results", len(batch.Results)),
		zap.Int("unreadable", len(unreadable)),
		zap.Int("failed", len(batch.Failed)),
	)

	return batch, nil
}

func (r *Runner) match(ctx context.Context, scorer similarity.Scorer, item *resume.Resume, requirements []string, positions []matching.Position) (matching.Result, error) {
	if preparer, ok := scorer.(similarity.Preparer); ok {
		texts := append([]string{item.Text}, requirements...)
		if err := preparer.Prepare(ctx, texts...); err != nil {
			return matching.Result{}, err
		}
	}
	return r.selector.Select(ctx, item.ID, item.Text, positions)
}
