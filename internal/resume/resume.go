// Package resume collects résumé files and turns them into plain text.
package resume

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrUnreadable        = errors.New("resume is unreadable")
	ErrUnsupportedFormat = errors.New("unsupported resume format")
)

type Resumes struct {
	Items []*Resume
}

type Resume struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Text string `json:"-"`
	// Err is set when no usable text could be extracted. It always wraps
	// ErrUnreadable.
	Err error `json:"-"`
	// DuplicateOf names the earlier résumé with the same text, if any.
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// Readable reports whether the résumé has text to match.
func (r *Resume) Readable() bool {
	return r.Err == nil && strings.TrimSpace(r.Text) != ""
}

// FromText builds an in-memory résumé.
func FromText(id, text string) *Resume {
	r := &Resume{ID: id, Text: text}
	if strings.TrimSpace(text) == "" {
		r.Err = fmt.Errorf("%s: %w: empty text", id, ErrUnreadable)
	}
	return r
}

// Load collects résumés from files and directories. Directories are walked
// recursively and hidden entries are skipped. An extraction failure marks
// the résumé unreadable instead of failing the batch.
func Load(paths []string, logger *zap.Logger) (*Resumes, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := collect(paths)
	if err != nil {
		return nil, err
	}

	resumes := &Resumes{Items: make([]*Resume, 0, len(files))}
	for _, path := range files {
		r := &Resume{ID: filepath.Base(path), Path: path}

		text, err := Extract(path)
		if err != nil {
			r.Err = fmt.Errorf("%s: %w: %w", r.ID, ErrUnreadable, err)
			logger.Warn("resume text extraction failed",
				zap.String("resume_id", r.ID),
				zap.String("path", path),
				zap.Error(err),
			)
		}
		r.Text = text

		resumes.Items = append(resumes.Items, r)
	}

	logger.Info("resumes loaded",
		zap.Int("total", resumes.Len()),
		zap.Int("unreadable", len(resumes.UnreadableIDs())),
	)

	return resumes, nil
}

func collect(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func (r *Resumes) Len() int {
	return len(r.Items)
}

func (r *Resumes) IDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, v := range r.Items {
		ids = append(ids, v.ID)
	}
	return ids
}

func (r *Resumes) UnreadableIDs() []string {
	ids := make([]string, 0)
	for _, v := range r.Items {
		if !v.Readable() {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// Exclude removes résumés whose ID is in targets and returns the removed
// IDs. Order of the remaining items is preserved.
func (r *Resumes) Exclude(targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}
	return r.Remove(func(v *Resume) bool {
		_, ok := set[v.ID]
		return ok
	})
}

// Remove drops every résumé for which drop returns true and returns their IDs.
func (r *Resumes) Remove(drop func(*Resume) bool) []string {
	var removed []string
	kept := r.Items[:0]
	for _, v := range r.Items {
		if drop(v) {
			removed = append(removed, v.ID)
			continue
		}
		kept = append(kept, v)
	}
	r.Items = kept
	return removed
}
