// Package matching decides whether a résumé fits a position and picks the
// best position for each résumé.
package matching

import (
	"fmt"
	"strings"
)

// Decision is the final outcome for a résumé.
type Decision string

const (
	Use        Decision = "Use"
	DoNotUse   Decision = "Do Not Use"
	Unreadable Decision = "Do Not Use (unreadable)"
)

// ParseDecision maps a rendered decision back to its value.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.TrimSpace(s)); d {
	case Use, DoNotUse, Unreadable:
		return d, nil
	default:
		return "", fmt.Errorf("unknown decision %q", s)
	}
}

// Position is one row of the positions table.
type Position struct {
	Title                   string   `json:"title" yaml:"title"`
	EssentialQualifications []string `json:"essential_qualifications" yaml:"essential_qualifications"`
	ExperienceRequirement   string   `json:"experience" yaml:"experience"`
	Location                string   `json:"location" yaml:"location"`
}

// Signals are the per-factor outcomes for one (résumé, position) pair.
type Signals struct {
	LocationMatch              bool
	ExperienceMatch            bool
	QualificationMatchFraction float64
	MatchedQualifications      []string

	// Diagnostics, never part of the decision.
	ExperienceYears    int
	ExpectedExperience int
	InferredLocation   string
	TitleSimilarity    float64
	LocationSimilarity float64

	qualificationsRequired int
}

// QualificationMatch reports whether the qualification factor passes. An
// empty requirement list passes vacuously.
func (s Signals) QualificationMatch() bool {
	if s.qualificationsRequired == 0 {
		return true
	}
	return s.QualificationMatchFraction >= QualificationPassFraction
}

// Total is the number of passing factors, 0 to 3.
func (s Signals) Total() int {
	total := 0
	for _, ok := range []bool{s.LocationMatch, s.ExperienceMatch, s.QualificationMatch()} {
		if ok {
			total++
		}
	}
	return total
}

// Decision is Use only when every factor passes.
func (s Signals) Decision() Decision {
	if s.Total() == factorCount {
		return Use
	}
	return DoNotUse
}

// Result is the single row emitted for a résumé.
type Result struct {
	ResumeID                  string   `json:"resume_id"`
	BestPositionTitle         string   `json:"best_position_title"`
	LocationMatch             bool     `json:"location_match"`
	ExperienceMatch           bool     `json:"experience_match"`
	QualificationMatch        bool     `json:"qualification_match"`
	Decision                  Decision `json:"decision"`
	QualificationMatchPercent int      `json:"qualification_match_percent"`
	MatchedQualifications     []string `json:"matched_qualifications"`
	TotalScore                int      `json:"total_score"`
}

// UnreadableResult is the audit row for a résumé excluded before matching.
func UnreadableResult(resumeID string) Result {
	return Result{
		ResumeID:              resumeID,
		Decision:              Unreadable,
		MatchedQualifications: []string{},
	}
}
