// Package report renders match results as CSV, per-position summaries and
// JSON dumps.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/resume"
)

const (
	yes = "Yes"
	no  = "No"

	qualificationSeparator = ", "
	unreadableKey          = "(unreadable)"
)

// Columns is the CSV header, in output order.
var Columns = []string{
	"Resume",
	"Best Match Position",
	"Location Match",
	"Experience Match",
	"QR Match",
	"QR Match %",
	"Matched QRs",
	"Total Score",
	"Decision",
}

// WriteCSV writes the header and one row per result.
func WriteCSV(w io.Writer, results []matching.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the results to path, replacing any previous content.
func WriteCSVFile(path string, results []matching.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, results); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ParseCSV reads rows produced by WriteCSV.
func ParseCSV(r io.Reader) ([]matching.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for idx, col := range Columns {
		if strings.TrimSpace(header[idx]) != col {
			return nil, fmt.Errorf("unexpected column %d: %q, want %q", idx+1, header[idx], col)
		}
	}

	results := make([]matching.Result, 0)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}
		res, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		results = append(results, res)
	}

	return results, nil
}

func record(r matching.Result) []string {
	return []string{
		r.ResumeID,
		r.BestPositionTitle,
		yesNo(r.LocationMatch),
		yesNo(r.ExperienceMatch),
		yesNo(r.QualificationMatch),
		strconv.Itoa(r.QualificationMatchPercent),
		strings.Join(r.MatchedQualifications, qualificationSeparator),
		strconv.Itoa(r.TotalScore),
		string(r.Decision),
	}
}

func parseRecord(rec []string) (matching.Result, error) {
	var (
		res  matching.Result
		errs []error
	)

	res.ResumeID = rec[0]
	res.BestPositionTitle = rec[1]
	res.LocationMatch = parseYesNo(rec[2], &errs)
	res.ExperienceMatch = parseYesNo(rec[3], &errs)
	res.QualificationMatch = parseYesNo(rec[4], &errs)

	percent, err := strconv.Atoi(rec[5])
	if err != nil || percent < 0 || percent > 100 {
		errs = append(errs, fmt.Errorf("invalid QR match percent %q", rec[5]))
	}
	res.QualificationMatchPercent = percent

	res.MatchedQualifications = []string{}
	if rec[6] != "" {
		res.MatchedQualifications = strings.Split(rec[6], qualificationSeparator)
	}

	total, err := strconv.Atoi(rec[7])
	if err != nil || total < 0 || total > 3 {
		errs = append(errs, fmt.Errorf("invalid total score %q", rec[7]))
	}
	res.TotalScore = total

	decision, err := matching.ParseDecision(rec[8])
	if err != nil {
		errs = append(errs, err)
	}
	res.Decision = decision

	return res, errors.Join(errs...)
}

func yesNo(v bool) string {
	if v {
		return yes
	}
	return no
}

func parseYesNo(s string, errs *[]error) bool {
	switch s {
	case yes:
		return true
	case no:
		return false
	default:
		*errs = append(*errs, fmt.Errorf("invalid boolean %q", s))
		return false
	}
}

// ByPosition groups results under their best position.
func ByPosition(results []matching.Result) map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, r := range results {
		key := r.BestPositionTitle
		if r.Decision == matching.Unreadable {
			key = unreadableKey
		}
		report[key] = append(report[key], map[string]string{
			"resume":           r.ResumeID,
			"decision":         string(r.Decision),
			"total_score":      strconv.Itoa(r.TotalScore),
			"qr_match_percent": strconv.Itoa(r.QualificationMatchPercent),
			"matched_qrs":      strings.Join(r.MatchedQualifications, qualificationSeparator),
		})
	}
	return report
}

// Dump is the JSON document written by DumpToTmpFile.
type Dump struct {
	RunID    string            `json:"run_id"`
	Strategy string            `json:"strategy"`
	Results  []matching.Result `json:"results"`
	Failed   []string          `json:"failed,omitempty"`
}

func (d *Dump) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "resume_matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ToExcluded turns results into exclude file entries stamped with at.
func ToExcluded(results []matching.Result, at time.Time) *resume.Excluded {
	excluded := &resume.Excluded{}
	for _, r := range results {
		excluded.Items = append(excluded.Items, &resume.ExcludedResume{
			ID:         r.ResumeID,
			Position:   r.BestPositionTitle,
			Decision:   string(r.Decision),
			ExcludedAt: at.UTC(),
		})
	}
	return excluded
}
