package resume

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Excluded is the exclude file: résumés screened in earlier runs.
type Excluded struct {
	Items []*ExcludedResume
}

type ExcludedResume struct {
	ID         string
	Position   string
	Decision   string
	ExcludedAt time.Time
}

// ExcludedFromFile reads an exclude file. A missing or empty file is an
// empty list.
func ExcludedFromFile(path string) (*Excluded, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Excluded{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose ID is not listed yet.
func (e *Excluded) Append(s *Excluded) {
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *Excluded) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
