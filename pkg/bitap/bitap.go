/*
Package bitap implements bounded-error substring matching with the bit-parallel
Bitap (Shift-Or) algorithm.

A pattern is compiled once into a table of character masks and can then be
scanned against any number of texts. Every scan keeps one machine word per
error level, so a pattern may not be longer than the word width minus one
(MaxPatternLen runes).

	p, err := bitap.Compile("2023")
	end := p.Match("report-2024.xlsx", 1) // 10

Match reports where the first accepted window ENDS in the text, counted in
runes. It is a position, not a similarity score.

Patterns must be valid UTF-8. Invalid bytes in a text decode to U+FFFD and
only match a pattern that contains U+FFFD literally.
*/
package bitap

import (
	"errors"
	"unicode/utf8"
)

const (
	// MaxPatternLen is the longest pattern a uint32 state vector can track.
	MaxPatternLen = 31

	// NoMatch is returned when no window within the error budget exists.
	NoMatch = -1

	// inline state vectors for budgets below this avoid a heap allocation
	inlineLevels = 8
)

var (
	ErrOversizedPattern = errors.New("bitap: pattern exceeds 31 characters")
	ErrNegativeBudget   = errors.New("bitap: edit budget must not be negative")
	ErrInvalidUTF8      = errors.New("bitap: pattern is not valid UTF-8")
)

// Pattern is a compiled query. It is immutable and safe for concurrent use.
type Pattern struct {
	source string
	m      int
	ascii  [utf8.RuneSelf]uint32
	wide   map[rune]uint32
}

// Compile builds the character mask table for pattern.
// Symbols absent from the pattern keep every bit set.
func Compile(pattern string) (*Pattern, error) {
	if !utf8.ValidString(pattern) {
		return nil, ErrInvalidUTF8
	}
	m := utf8.RuneCountInString(pattern)
	if m > MaxPatternLen {
		return nil, ErrOversizedPattern
	}

	p := &Pattern{source: pattern, m: m}
	for i := range p.ascii {
		p.ascii[i] = ^uint32(0)
	}

	i := 0
	for _, r := range pattern {
		if r < utf8.RuneSelf {
			p.ascii[r] &^= 1 << i
		} else {
			if p.wide == nil {
				p.wide = make(map[rune]uint32)
			}
			mask, ok := p.wide[r]
			if !ok {
				mask = ^uint32(0)
			}
			p.wide[r] = mask &^ (1 << i)
		}
		i++
	}
	return p, nil
}

// Len returns the pattern length in runes.
func (p *Pattern) Len() int {
	return p.m
}

func (p *Pattern) String() string {
	return p.source
}

func (p *Pattern) mask(r rune) uint32 {
	if r >= 0 && r < utf8.RuneSelf {
		return p.ascii[r]
	}
	if mask, ok := p.wide[r]; ok {
		return mask
	}
	return ^uint32(0)
}

// Match scans text and returns the rune offset where the first window within
// k substitutions ends, or NoMatch. An empty pattern matches at offset 0.
// A negative k never matches.
func (p *Pattern) Match(text string, k int) int {
	if p.m == 0 {
		return 0
	}
	if k < 0 {
		return NoMatch
	}

	var inline [inlineLevels]uint32
	var R []uint32
	if k < inlineLevels {
		R = inline[:k+1]
	} else {
		R = make([]uint32, k+1)
	}
	for d := range R {
		R[d] = ^uint32(1)
	}

	accept := uint32(1) << p.m
	i := 0
	for _, c := range text {
		mask := p.mask(c)

		// R[d-1] from before this step carries a substitution into level d
		prev := R[0]
		R[0] = (R[0] | mask) << 1
		for d := 1; d <= k; d++ {
			tmp := R[d]
			R[d] = (prev & (R[d] | mask)) << 1
			prev = tmp
		}

		if R[k]&accept == 0 {
			return i
		}
		i++
	}
	return NoMatch
}

// Distance returns the smallest budget d in [0, maxK] for which text matches,
// together with the offset Match reports for that budget. Both values are
// NoMatch when even maxK fails.
func (p *Pattern) Distance(text string, maxK int) (int, int) {
	for d := 0; d <= maxK; d++ {
		if off := p.Match(text, d); off != NoMatch {
			return d, off
		}
	}
	return NoMatch, NoMatch
}

// Match compiles pattern and scans text with budget k.
func Match(text, pattern string, k int) (int, error) {
	if k < 0 {
		return NoMatch, ErrNegativeBudget
	}
	p, err := Compile(pattern)
	if err != nil {
		return NoMatch, err
	}
	return p.Match(text, k), nil
}
