package screening

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/similarity/lexical"
)

func batchOf(items ...*resume.Resume) *resume.Resumes {
	return &resume.Resumes{Items: items}
}

func TestRunFilters(t *testing.T) {
	excludeFile := filepath.Join(t.TempDir(), "excluded.json")
	seen := &resume.Excluded{Items: []*resume.ExcludedResume{{ID: "old.txt", ExcludedAt: time.Now().UTC()}}}
	if err := seen.ToFile(excludeFile); err != nil {
		t.Fatalf("writing exclude file: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)

	broken := &resume.Resume{ID: "scan.pdf", Err: resume.ErrUnreadable}
	input := batchOf(
		resume.FromText("a.txt", "3 years Python, Pune"),
		resume.FromText("old.txt", "Delhi"),
		broken,
		resume.FromText("copy.txt", "3  YEARS Python,   pune"),
		resume.FromText("empty.txt", " "),
		resume.FromText("b.txt", "Mumbai"),
	)

	left, unreadable, err := Run(context.Background(), &Config{ExcludeFile: excludeFile}, Deps{Logger: zap.New(core)}, Default(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(left.IDs(), []string{"a.txt", "copy.txt", "b.txt"}) {
		t.Fatalf("unexpected remaining resumes: %v", left.IDs())
	}

	gotUnreadable := make([]string, 0, len(unreadable))
	for _, r := range unreadable {
		gotUnreadable = append(gotUnreadable, r.ID)
	}
	if !reflect.DeepEqual(gotUnreadable, []string{"scan.pdf", "empty.txt"}) {
		t.Fatalf("unexpected unreadable resumes: %v", gotUnreadable)
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 3 {
		t.Fatalf("expected 3 filter step entries, got %d", len(steps))
	}
	wantDropped := map[string]int64{"exclude_file": 1, "unreadable": 2, "duplicate": 0}
	for _, entry := range steps {
		ctx := entry.ContextMap()
		name, _ := ctx["name"].(string)
		if ctx["dropped"] != wantDropped[name] {
			t.Fatalf("step %s dropped %v, want %d", name, ctx["dropped"], wantDropped[name])
		}
	}

	if logs.FilterMessage("resume duplicates an earlier one").FilterField(zap.String("duplicate_of", "a.txt")).Len() != 1 {
		t.Fatalf("expected duplicate log entry pointing at a.txt")
	}
	if copied := left.Items[1]; copied.DuplicateOf != "a.txt" {
		t.Fatalf("expected copy.txt to be linked to a.txt, got %q", copied.DuplicateOf)
	}
}

func TestRunWithDisabledStep(t *testing.T) {
	steps := Default()
	DisableByName(steps, "duplicate", "requested")

	left, _, err := Run(context.Background(), &Config{}, Deps{}, steps, batchOf(
		resume.FromText("a", "same text"),
		resume.FromText("b", "same text"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left.Len() != 2 || left.Items[1].DuplicateOf != "" {
		t.Fatalf("expected unlinked resumes, got %+v", left.Items)
	}

	statuses := Describe(steps)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	dup := statuses[2]
	if dup.Name != "duplicate" || dup.Enabled || dup.Reason != "requested" {
		t.Fatalf("unexpected duplicate status: %+v", dup)
	}
}

func TestRunExcludeFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Run(context.Background(), &Config{ExcludeFile: dir}, Deps{}, Default(), batchOf(resume.FromText("a", "x")))
	if err == nil || !strings.Contains(err.Error(), "exclude_file") {
		t.Fatalf("expected exclude_file error, got %v", err)
	}
}

// flakyScorer fails for targets containing "boom" and counts Prepare calls.
type flakyScorer struct {
	prepared int
}

func (f *flakyScorer) Name() string { return "flaky" }

func (f *flakyScorer) Threshold() float64 { return 0.7 }

func (f *flakyScorer) Similarity(ctx context.Context, query, target string) (float64, error) {
	if strings.Contains(target, "boom") {
		return 0, errors.New("provider failure")
	}
	return lexical.New().Similarity(ctx, query, target)
}

func (f *flakyScorer) Prepare(_ context.Context, texts ...string) error {
	f.prepared++
	if len(texts) == 0 {
		return errors.New("nothing to prepare")
	}
	return nil
}

var positions = []matching.Position{
	{Title: "Engineer", EssentialQualifications: []string{"Python", "SQL"}, ExperienceRequirement: "3 years", Location: "Pune"},
	{Title: "Developer", EssentialQualifications: []string{"Java"}, ExperienceRequirement: "5", Location: "Mumbai"},
}

func TestRunnerIsolatesFailures(t *testing.T) {
	scorer := &flakyScorer{}
	core, logs := observer.New(zapcore.InfoLevel)
	runner := NewRunner(matching.NewSelector(matching.NewMatcher(scorer, nil), nil), zap.New(core), Options{
		RunID:            "run-1",
		ReportUnreadable: true,
	})

	batch, err := runner.Run(context.Background(),
		batchOf(
			resume.FromText("jane.txt", "I have 3 years experience in Python and SQL, based in Pune"),
			resume.FromText("boom.txt", "boom"),
			resume.FromText("john.txt", "5 years Java developer, Mumbai"),
		),
		[]*resume.Resume{{ID: "scan.pdf"}},
		positions,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch.RunID != "run-1" || batch.Strategy != "flaky" {
		t.Fatalf("unexpected batch header: %+v", batch)
	}
	if !reflect.DeepEqual(batch.Failed, []string{"boom.txt"}) {
		t.Fatalf("unexpected failed list: %v", batch.Failed)
	}
	if scorer.prepared != 3 {
		t.Fatalf("expected Prepare once per resume, got %d", scorer.prepared)
	}

	want := []struct {
		id       string
		position string
		decision matching.Decision
	}{
		{"jane.txt", "Engineer", matching.Use},
		{"john.txt", "Developer", matching.Use},
		{"scan.pdf", "", matching.Unreadable},
	}
	if len(batch.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(batch.Results))
	}
	for i, w := range want {
		got := batch.Results[i]
		if got.ResumeID != w.id || got.BestPositionTitle != w.position || got.Decision != w.decision {
			t.Fatalf("result %d: got %+v, want %+v", i, got, w)
		}
	}

	if logs.FilterMessage("matching resume failed").Len() != 1 {
		t.Fatalf("expected a warning for the failed resume")
	}
}

func TestRunnerEmitsRowPerDuplicate(t *testing.T) {
	input := batchOf(
		resume.FromText("alice.txt", "Pune\n3 years C++ developer"),
		resume.FromText("bob.txt", "Pune\n3 years C developer"),
		resume.FromText("carol.txt", "Pune\n3 years C# developer"),
		resume.FromText("alice-copy.txt", "PUNE\n3  years C++ developer"),
	)

	left, unreadable, err := Run(context.Background(), &Config{}, Deps{}, Default(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scorer := &flakyScorer{}
	runner := NewRunner(matching.NewSelector(matching.NewMatcher(scorer, nil), nil), nil, Options{ReportUnreadable: true})
	batch, err := runner.Run(context.Background(), left, unreadable, positions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range batch.Results {
		ids = append(ids, r.ResumeID)
	}
	if !reflect.DeepEqual(ids, []string{"alice.txt", "bob.txt", "carol.txt", "alice-copy.txt"}) {
		t.Fatalf("expected one row per resume, got %v", ids)
	}
	if scorer.prepared != 3 {
		t.Fatalf("expected the linked duplicate to skip scoring, got %d prepares", scorer.prepared)
	}

	original, copied := batch.Results[0], batch.Results[3]
	copied.ResumeID = original.ResumeID
	if !reflect.DeepEqual(original, copied) {
		t.Fatalf("expected the duplicate to reuse the result:\n%+v\n%+v", original, copied)
	}
}

func TestRunnerWithoutUnreadableRows(t *testing.T) {
	runner := NewRunner(matching.NewSelector(matching.NewMatcher(lexical.New(), nil), nil), nil, Options{})

	batch, err := runner.Run(context.Background(),
		batchOf(resume.FromText("john.txt", "Nothing relevant")),
		[]*resume.Resume{{ID: "scan.pdf"}},
		positions,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Results) != 1 || batch.Results[0].Decision != matching.DoNotUse {
		t.Fatalf("unexpected results: %+v", batch.Results)
	}
}

func TestRunnerErrors(t *testing.T) {
	runner := NewRunner(matching.NewSelector(matching.NewMatcher(lexical.New(), nil), nil), nil, Options{})

	if _, err := runner.Run(context.Background(), batchOf(), nil, nil); !errors.Is(err, matching.ErrNoPositions) {
		t.Fatalf("expected ErrNoPositions, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx, batchOf(resume.FromText("a", "text")), nil, positions); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
