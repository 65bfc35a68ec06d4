// Package normalize prepares résumé and position text for comparison and
// extracts the crude structured signals (years of experience, location) the
// matcher relies on.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// locationHeaderLines is the number of leading lines scanned for a city.
// Contact details live in the header by convention.
const locationHeaderLines = 5

// Gazetteer is the closed list of cities recognized by InferLocation.
// Anything outside of it is invisible to the heuristic.
var Gazetteer = []string{"pune", "bangalore", "delhi", "mumbai", "hyderabad"}

var (
	foldAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)

	experiencePattern = regexp.MustCompile(`(\d+)\s*\+?\s*year(?:s\b|\(s\)|\b)`)
	integerPattern    = regexp.MustCompile(`\d+`)
)

// Normalize lowercases text after folding compatibility forms and accents.
// All comparisons in the module go through it.
func Normalize(text string) string {
	folded, _, err := transform.String(foldAccents, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Tokenize splits normalized text into alphanumeric tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// ExperienceYears returns the largest "<n>[+] year(s)" claim found in text, or 0.
//
// Résumés state experience in several places (summary, per-job bullets), the
// maximum is taken as the candidate's most favorable claim. It is a heuristic:
// internship or overlapping periods inflate it.
func ExperienceYears(text string) int {
	best := 0
	for _, m := range experiencePattern.FindAllStringSubmatch(Normalize(text), -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}

// InferLocation returns the first of the leading lines that mentions a
// gazetteer city, lowercased and trimmed. Empty when none does.
func InferLocation(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > locationHeaderLines {
		lines = lines[:locationHeaderLines]
	}

	for _, line := range lines {
		lower := strings.TrimSpace(Normalize(line))
		for _, city := range Gazetteer {
			if strings.Contains(lower, city) {
				return lower
			}
		}
	}

	return ""
}

// ExpectedExperience parses the first integer in a position's experience
// field ("3+ years", "min 5"). Fields without digits mean 0.
func ExpectedExperience(field string) int {
	token := integerPattern.FindString(field)
	if token == "" {
		return 0
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}
	return n
}

// Heuristics bundles the extractors above so callers can swap them out.
type Heuristics struct{}

func (Heuristics) ExperienceYears(text string) int { return ExperienceYears(text) }

func (Heuristics) InferLocation(text string) string { return InferLocation(text) }

func (Heuristics) ExpectedExperience(field string) int { return ExpectedExperience(field) }
