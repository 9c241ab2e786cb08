package bitap

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func TestMatch(t *testing.T) {
	testCases := []struct {
		text        string
		pattern     string
		k           int
		expected    int
		description string
	}{
		{"report-2023.xlsx", "2023", 0, 10, "Exact match inside path"},
		{"report-2024.xlsx", "2023", 1, 10, "One substitution within budget"},
		{"report-2024.xlsx", "2023", 0, NoMatch, "One substitution without budget"},
		{"2023", "2023", 0, 3, "Text equals pattern"},
		{"budget", "", 0, 0, "Empty pattern matches at zero"},
		{"", "abc", 2, NoMatch, "Empty text"},
		{"ab", "abc", 0, NoMatch, "Text shorter than pattern"},
		{"xxabcxxabc", "abc", 0, 4, "First occurrence only"},
		{"quarterly budget", "budgot", 1, 15, "Vowel substitution"},
		{"quarterly budget", "bxdgxt", 1, NoMatch, "Two substitutions over budget"},
		{"quarterly budget", "bxdgxt", 2, 15, "Two substitutions within budget"},
		{"hello world", "world", 9, 4, "Budget larger than pattern"},
		{"Report.xlsx", "report", 0, NoMatch, "Case sensitive"},
		{"résumé-final.docx", "résumé", 0, 5, "Non-ASCII runes"},
		{"résumé-final.docx", "final", 0, 11, "Offsets counted in runes"},
		{"naïve", "naive", 1, 4, "Wide rune substituted"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got, err := Match(tc.text, tc.pattern, tc.k)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Match(%q, %q, %d): expected %d, got %d", tc.text, tc.pattern, tc.k, tc.expected, got)
			}
		})
	}
}

func TestMatchOversizedPattern(t *testing.T) {
	long := strings.Repeat("a", MaxPatternLen+1)
	for _, k := range []int{0, 1, 5} {
		for _, text := range []string{"", "a", long, long + long} {
			got, err := Match(text, long, k)
			if !errors.Is(err, ErrOversizedPattern) {
				t.Errorf("k=%d text len %d: expected ErrOversizedPattern, got %v", k, len(text), err)
			}
			if got != NoMatch {
				t.Errorf("k=%d: expected NoMatch, got %d", k, got)
			}
		}
	}

	if _, err := Compile(strings.Repeat("é", MaxPatternLen+1)); !errors.Is(err, ErrOversizedPattern) {
		t.Errorf("expected rune count to be checked, got %v", err)
	}
}

func TestMatchLongestPattern(t *testing.T) {
	pattern := strings.Repeat("ab", 15) + "c"
	if len(pattern) != MaxPatternLen {
		t.Fatalf("bad fixture length %d", len(pattern))
	}
	got, err := Match("zz"+pattern, pattern, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != MaxPatternLen+1 {
		t.Errorf("expected %d, got %d", MaxPatternLen+1, got)
	}
}

func TestMatchNegativeBudget(t *testing.T) {
	if _, err := Match("abc", "abc", -1); !errors.Is(err, ErrNegativeBudget) {
		t.Errorf("expected ErrNegativeBudget, got %v", err)
	}
	p, _ := Compile("abc")
	if got := p.Match("abc", -1); got != NoMatch {
		t.Errorf("expected NoMatch for negative budget, got %d", got)
	}
}

func TestCompileRejectsInvalidUTF8(t *testing.T) {
	for _, pattern := range []string{"\xff", "bud\xfeget", "\xc3"} {
		if _, err := Compile(pattern); !errors.Is(err, ErrInvalidUTF8) {
			t.Errorf("Compile(%q) err = %v, want ErrInvalidUTF8", pattern, err)
		}
	}

	// two different invalid bytes must not pair up as equal symbols
	if _, err := Match("a\xfeb", "a\xffb", 0); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Match with invalid pattern err = %v", err)
	}

	p, err := Compile("a\uFFFDb")
	if err != nil {
		t.Fatalf("Compile literal U+FFFD: %v", err)
	}
	if got := p.Match("xa\xffb", 0); got != 3 {
		t.Errorf("literal U+FFFD against invalid byte = %d, want 3", got)
	}
}

// a text equal to its pattern always ends at m-1, whatever the budget
func TestSelfMatch(t *testing.T) {
	patterns := []string{"a", "ab", "budget", "report-2023.xlsx", strings.Repeat("x", MaxPatternLen)}
	for _, pattern := range patterns {
		for k := 0; k <= 3; k++ {
			t.Run(fmt.Sprintf("%s/k=%d", pattern, k), func(t *testing.T) {
				got, err := Match(pattern, pattern, k)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != len(pattern)-1 {
					t.Errorf("expected %d, got %d", len(pattern)-1, got)
				}
			})
		}
	}
}

// with k=0 the scan is a literal substring search
func TestZeroBudgetIsSubstringSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randString := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = "abc"[rng.Intn(3)]
		}
		return string(b)
	}

	for i := 0; i < 500; i++ {
		text := randString(rng.Intn(40))
		pattern := randString(1 + rng.Intn(5))

		expected := NoMatch
		if idx := strings.Index(text, pattern); idx >= 0 {
			expected = idx + len(pattern) - 1
		}

		got, err := Match(text, pattern, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != expected {
			t.Fatalf("Match(%q, %q, 0): expected %d, got %d", text, pattern, expected, got)
		}
	}
}

func TestSingleSubstitution(t *testing.T) {
	pattern := "quarterly"
	for i := range pattern {
		b := []byte(pattern)
		b[i] = '#'
		text := "the " + string(b) + " report"

		if got, _ := Match(text, pattern, 0); got != NoMatch {
			t.Errorf("%q with k=0: expected NoMatch, got %d", text, got)
		}
		if got, _ := Match(text, pattern, 1); got == NoMatch {
			t.Errorf("%q with k=1: expected a match", text)
		}
	}
}

func TestDistance(t *testing.T) {
	p, err := Compile("2023")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testCases := []struct {
		text         string
		maxK         int
		expectedDist int
		expectedOff  int
	}{
		{"report-2023.xlsx", 2, 0, 10},
		{"report-2024.xlsx", 2, 1, 10},
		{"report-2924.xlsx", 2, 2, 10},
		{"report-2924.xlsx", 1, NoMatch, NoMatch},
		{"", 3, NoMatch, NoMatch},
	}

	for _, tc := range testCases {
		d, off := p.Distance(tc.text, tc.maxK)
		if d != tc.expectedDist || off != tc.expectedOff {
			t.Errorf("Distance(%q, %d): expected (%d, %d), got (%d, %d)",
				tc.text, tc.maxK, tc.expectedDist, tc.expectedOff, d, off)
		}
	}
}

func TestCompiledPatternReuse(t *testing.T) {
	p, err := Compile("budget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 6 || p.String() != "budget" {
		t.Errorf("unexpected pattern metadata: len=%d str=%q", p.Len(), p.String())
	}

	texts := map[string]int{
		"budget.xlsx":              5,
		"C:/docs/2023 budget.xlsx": 18,
		"notes.txt":                NoMatch,
	}
	for text, expected := range texts {
		if got := p.Match(text, 0); got != expected {
			t.Errorf("Match(%q): expected %d, got %d", text, expected, got)
		}
	}
}

func BenchmarkMatch(b *testing.B) {
	p, err := Compile("budget")
	if err != nil {
		b.Fatal(err)
	}
	texts := []string{
		"C:/Users/someone/Documents/finance/quarterly budget report final.xlsx",
		"C:/Users/someone/Documents/finance/2023/annual-review.xlsx",
		"/home/someone/work/budgte-draft.ods",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Match(texts[i%len(texts)], 2)
	}
}
