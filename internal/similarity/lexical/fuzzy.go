package lexical

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/spigell/resume-matcher/internal/normalize"
)

// TokenSetRatio compares the token sets of a and b. Tokens shared by both
// sides are compared against each side's leftovers, so a short phrase whose
// every token appears in a long text scores 1 regardless of order or
// repetition.
func TokenSetRatio(a, b string) float64 {
	ta := strings.Join(normalize.Tokenize(a), " ")
	tb := strings.Join(normalize.Tokenize(b), " ")
	if ta == "" || tb == "" {
		return 0
	}
	return fraction(fuzzy.TokenSetRatio(ta, tb))
}

// PartialRatio scores the shorter string against its best aligned window in
// the longer one.
func PartialRatio(a, b string) float64 {
	na := strings.TrimSpace(normalize.Normalize(a))
	nb := strings.TrimSpace(normalize.Normalize(b))
	if na == "" || nb == "" {
		return 0
	}
	return fraction(fuzzy.PartialRatio(na, nb))
}

func fraction(score int) float64 {
	return float64(score) / 100
}
