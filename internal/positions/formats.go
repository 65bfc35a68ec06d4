package positions

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func readCSV(r io.Reader) ([]map[string]any, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}
	return fromRows(rows)
}

func readXLSX(path string) ([]map[string]any, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

func readYAML(r io.Reader) ([]map[string]any, []string, error) {
	var records []map[string]any
	if err := yaml.NewDecoder(r).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return records, keys(records), nil
}

func readJSON(r io.Reader) ([]map[string]any, []string, error) {
	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("decoding json: %w", err)
	}
	return records, keys(records), nil
}

// fromRows maps a header row plus data rows into records. Short rows leave
// the trailing columns unset.
func fromRows(rows [][]string) ([]map[string]any, []string, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}

	header := rows[0]
	records := make([]map[string]any, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		record := make(map[string]any, len(header))
		for idx, cell := range cells {
			if idx >= len(header) {
				break
			}
			record[header[idx]] = cell
		}
		records = append(records, record)
	}
	return records, header, nil
}

func keys(records []map[string]any) []string {
	seen := make(map[string]struct{})
	columns := make([]string, 0)
	for _, record := range records {
		for key := range record {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	return columns
}
