// Package positions loads the table of open positions a résumé batch is
// matched against.
package positions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	ColumnTitle          = "Position Title"
	ColumnQualifications = "Essential QRs"
	ColumnExperience     = "Experience"
	ColumnLocation       = "Location"
)

var (
	ErrMissingColumns    = errors.New("positions table is missing required columns")
	ErrNoPositions       = errors.New("positions table has no rows")
	ErrUnsupportedFormat = errors.New("unsupported positions format")
)

// RequiredColumns are the headers every table must carry, in any order.
var RequiredColumns = []string{ColumnTitle, ColumnQualifications, ColumnExperience, ColumnLocation}

type row struct {
	Title          string `mapstructure:"Position Title"`
	Qualifications string `mapstructure:"Essential QRs"`
	Experience     string `mapstructure:"Experience"`
	Location       string `mapstructure:"Location"`
}

// Load reads the positions table at path. The format is picked by extension.
func Load(path string, logger *zap.Logger) ([]matching.Position, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	records, columns, err := read(path)
	if err != nil {
		return nil, err
	}

	positions, err := Decode(records, columns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for idx, p := range positions {
		if strings.TrimSpace(p.Location) == "" {
			logger.Warn("position has no location, every résumé will match it",
				zap.Int("row", idx+1),
				zap.String("position", p.Title),
			)
		}
		if strings.TrimSpace(p.ExperienceRequirement) == "" {
			logger.Warn("position has no experience requirement, 0 years expected",
				zap.Int("row", idx+1),
				zap.String("position", p.Title),
			)
		}
	}

	logger.Info("positions loaded", zap.String("path", path), zap.Int("count", len(positions)))

	return positions, nil
}

func read(path string) ([]map[string]any, []string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		return readXLSX(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	switch ext {
	case ".csv":
		return readCSV(file)
	case ".yaml", ".yml":
		return readYAML(file)
	case ".json":
		return readJSON(file)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Decode turns raw records into positions. columns are the headers seen in
// the source; header matching ignores case and surrounding whitespace.
func Decode(records []map[string]any, columns []string) ([]matching.Position, error) {
	canonical := make(map[string]string, len(columns))
	for _, col := range columns {
		if name, ok := canonicalColumn(col); ok {
			canonical[col] = name
		}
	}

	present := make(map[string]bool, len(RequiredColumns))
	for _, name := range canonical {
		present[name] = true
	}
	var missing []string
	for _, name := range RequiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	positions := make([]matching.Position, 0, len(records))
	for idx, record := range records {
		input := make(map[string]any, len(RequiredColumns))
		for key, value := range record {
			if name, ok := canonical[key]; ok {
				input[name] = flatten(value)
			}
		}

		var r row
		cfg := &mapstructure.DecoderConfig{
			Result:           &r,
			WeaklyTypedInput: true,
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(input); err != nil {
			return nil, fmt.Errorf("row %d: %w", idx+1, err)
		}

		if r.blank() {
			continue
		}
		positions = append(positions, r.position())
	}

	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	return positions, nil
}

// SplitQualifications splits an "Essential QRs" cell on commas.
func SplitQualifications(cell string) []string {
	quals := make([]string, 0)
	for _, part := range strings.Split(cell, ",") {
		if part = strings.TrimSpace(part); part != "" {
			quals = append(quals, part)
		}
	}
	return quals
}

func (r row) blank() bool {
	return strings.TrimSpace(r.Title) == "" &&
		strings.TrimSpace(r.Qualifications) == "" &&
		strings.TrimSpace(r.Experience) == "" &&
		strings.TrimSpace(r.Location) == ""
}

func (r row) position() matching.Position {
	return matching.Position{
		Title:                   strings.TrimSpace(r.Title),
		EssentialQualifications: SplitQualifications(r.Qualifications),
		ExperienceRequirement:   strings.TrimSpace(r.Experience),
		Location:                strings.TrimSpace(r.Location),
	}
}

func canonicalColumn(header string) (string, bool) {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	for _, name := range RequiredColumns {
		if strings.EqualFold(header, name) {
			return name, true
		}
	}
	return "", false
}

// flatten lets YAML and JSON tables list qualifications as a sequence.
func flatten(value any) any {
	items, ok := value.([]any)
	if !ok {
		return value
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ", ")
}
