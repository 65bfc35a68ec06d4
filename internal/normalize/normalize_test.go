package normalize

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "lowercases", input: "Senior GO Engineer", expect: "senior go engineer"},
		{name: "folds accents", input: "Résumé São Paulo", expect: "resume sao paulo"},
		{name: "folds compatibility forms", input: "Ｐｙｔｈｏｎ", expect: "python"},
		{name: "empty", input: "", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Python, SQL & C++ / node.js")
	expect := []string{"python", "sql", "c", "node", "js"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected %v, got %v", expect, got)
	}
}

func TestExperienceYears(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect int
	}{
		{name: "none", input: "I like Go", expect: 0},
		{name: "single", input: "I have 3 years experience", expect: 3},
		{name: "plus suffix", input: "7+ years building APIs", expect: 7},
		{name: "singular", input: "1 year at Acme", expect: 1},
		{name: "parenthesised plural", input: "4 year(s) in support", expect: 4},
		{name: "takes maximum", input: "2 years at A\n10 years total\n5 years at B", expect: 10},
		{name: "case insensitive", input: "6 YEARS of Java", expect: 6},
		{name: "no space", input: "8years", expect: 8},
		{name: "not a duration", input: "5 yearly reviews, 12 yearbooks", expect: 0},
		{name: "sentence end", input: "Java for 9 years.", expect: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExperienceYears(tt.input); got != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestInferLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "header line",
			input:  "Jane Doe\n  Software Engineer, PUNE, India \njane@example.com",
			expect: "software engineer, pune, india",
		},
		{
			name:   "first match wins",
			input:  "Delhi office\nMumbai home",
			expect: "delhi office",
		},
		{
			name:   "outside gazetteer",
			input:  "John\nBerlin, Germany",
			expect: "",
		},
		{
			name:   "only first five lines",
			input:  "a\nb\nc\nd\ne\nHyderabad",
			expect: "",
		},
		{
			name:   "fifth line counts",
			input:  "a\nb\nc\nd\nbangalore",
			expect: "bangalore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := InferLocation(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExpectedExperience(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"3 years":         3,
		"3-5 years":       3,
		"minimum 10+ yrs": 10,
		"fresher":         0,
		"":                0,
	}

	for input, expect := range tests {
		if got := ExpectedExperience(input); got != expect {
			t.Fatalf("%q: expected %d, got %d", input, expect, got)
		}
	}
}
