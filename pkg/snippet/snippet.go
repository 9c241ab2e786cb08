// Package snippet turns a located query into a short display string with the
// surrounding context ellipsized.
package snippet

import (
	"strings"
	"unicode"
)

const (
	// DefaultLookahead is the number of context characters kept on each side of an occurrence.
	DefaultLookahead = 3

	// NoMatches is returned instead of an empty string when the query does not
	// occur literally. It is a display fallback, not text from the source.
	NoMatches = "ERROR: no matches found in source text"

	ellipsis    = "..."
	ellipsisLen = len(ellipsis)
	boldOpen    = "<b>"
	boldClose   = "</b>"
)

// Formatter builds snippets around every literal occurrence of a query.
type Formatter struct {
	Lookahead int
	// Bold wraps each context window in <b></b>
	Bold bool
}

// Ellipsify formats original around query with the given lookahead and no bold markers.
func Ellipsify(original, query string, lookahead int) string {
	return Formatter{Lookahead: lookahead}.Format(original, query)
}

// Format emits one snippet per non-overlapping occurrence of query, in order:
// a leading "..." (or the few characters it would hide), the context window,
// and a trailing "..." (or the short tail it would hide).
// Positions are counted in runes so multi-byte paths are never split.
func (f Formatter) Format(original, query string) string {
	text := []rune(original)
	return f.format(text, text, []rune(query))
}

// FormatFold is Format with occurrences found case-insensitively. The
// snippet is still cut from original, so its capitals are kept.
func (f Formatter) FormatFold(original, query string) string {
	text := []rune(original)
	return f.format(text, foldRunes(text), foldRunes([]rune(query)))
}

// format finds q in hay and cuts the windows out of text; both have the same length.
func (f Formatter) format(text, hay, q []rune) string {
	if len(q) == 0 || len(q) > len(text) {
		return NoMatches
	}

	lookahead := max(f.Lookahead, 0)

	var b strings.Builder
	for from := 0; ; {
		idx := indexRunes(hay, q, from)
		if idx < 0 {
			break
		}

		start := max(idx-lookahead, 0)
		end := min(idx+len(q)+lookahead, len(text))

		if start < ellipsisLen {
			b.WriteString(string(text[:start]))
		} else {
			b.WriteString(ellipsis)
		}

		if f.Bold {
			b.WriteString(boldOpen)
		}
		b.WriteString(string(text[start:end]))
		if f.Bold {
			b.WriteString(boldClose)
		}

		if end+ellipsisLen > len(text) {
			b.WriteString(string(text[end:]))
		} else {
			b.WriteString(ellipsis)
		}

		from = idx + len(q)
	}

	if b.Len() == 0 {
		return NoMatches
	}
	return b.String()
}

func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(hay, needle []rune, from int) int {
	for i := from; i+len(needle) <= len(hay); i++ {
		ok := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}
