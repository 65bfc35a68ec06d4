package screening

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/normalize"
	"github.com/spigell/resume-matcher/internal/resume"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes résumés listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, r *resume.Resumes) (*resume.Resumes, Step, error) {
	initial := r.Len()
	if f.path == "" {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	excluded, err := resume.ExcludedFromFile(f.path)
	if err != nil {
		return r, Step{}, fmt.Errorf("getting excluded resumes from file: %w", err)
	}

	removed := r.Exclude(excluded.IDs())
	if len(removed) > 0 {
		deps.Logger.Info("excluding resumes based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_resumes", removed),
			zap.Int("resumes_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type unreadableFilter struct {
	dropped []*resume.Resume
}

// NewUnreadable creates a filter that removes résumés without usable text.
func NewUnreadable() Filter {
	return &unreadableFilter{}
}

func (f *unreadableFilter) Name() string { return "unreadable" }

func (f *unreadableFilter) Disable(string) {}

// IsEnabled is always true: unreadable text never reaches the matcher.
func (f *unreadableFilter) IsEnabled() bool { return true }

func (f *unreadableFilter) Validate(*Config) error { return nil }

func (f *unreadableFilter) Apply(_ context.Context, deps Deps, r *resume.Resumes) (*resume.Resumes, Step, error) {
	initial := r.Len()
	f.dropped = nil

	removed := r.Remove(func(v *resume.Resume) bool {
		if v.Readable() {
			return false
		}
		f.dropped = append(f.dropped, v)
		return true
	})

	for _, v := range f.dropped {
		deps.Logger.Warn("resume is unreadable", zap.String("resume_id", v.ID), zap.Error(v.Err))
	}
	if len(removed) > 0 {
		deps.Logger.Info("excluding unreadable resumes",
			zap.Strings("excluded_resumes", removed),
			zap.Int("resumes_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *unreadableFilter) Unreadable() []*resume.Resume {
	return f.dropped
}

type duplicateFilter struct {
	disabled   bool
	reason     string
	duplicates int
}

// NewDuplicate creates a step that links résumés with the same normalized
// text to the first of them. Linked résumés stay in the batch and reuse the
// first one's result.
func NewDuplicate() Filter {
	return &duplicateFilter{}
}

func (f *duplicateFilter) Name() string { return "duplicate" }

func (f *duplicateFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *duplicateFilter) IsEnabled() bool { return !f.disabled }

func (f *duplicateFilter) Validate(*Config) error { return nil }

func (f *duplicateFilter) Apply(_ context.Context, deps Deps, r *resume.Resumes) (*resume.Resumes, Step, error) {
	seen := make(map[string]string, r.Len())
	f.duplicates = 0

	for _, v := range r.Items {
		key := fingerprint(v.Text)
		first, ok := seen[key]
		if !ok {
			seen[key] = v.ID
			v.DuplicateOf = ""
			continue
		}
		v.DuplicateOf = first
		f.duplicates++
		deps.Logger.Info("resume duplicates an earlier one",
			zap.String("resume_id", v.ID),
			zap.String("duplicate_of", first),
		)
	}

	return r, Step{Initial: r.Len(), Dropped: 0, Left: r.Len()}, nil
}

func (f *duplicateFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"duplicates": strconv.Itoa(f.duplicates)},
	}
}

// fingerprint keeps punctuation so "C++" and "C#" stay distinct.
func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(strings.Join(strings.Fields(normalize.Normalize(text)), " ")))
	return hex.EncodeToString(sum[:])
}
