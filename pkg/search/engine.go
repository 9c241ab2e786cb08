/*
Package search ranks candidate document paths against a typed query.

The Engine ties the leaf packages together: every candidate is scanned with a
compiled bitap pattern, misses and weak matches are dropped, survivors are
sorted and each one gets a display snippet.

	engine := search.NewEngine(search.DefaultOptions())
	matches, err := engine.Search(candidates, "budget", 2)

The Engine holds configuration only, so one value can serve concurrent
Search calls.
*/
package search

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/docsearch/pkg/bitap"
	"github.com/bastiangx/docsearch/pkg/snippet"
	"github.com/charmbracelet/log"
	"github.com/hbollon/go-edlib"
	"golang.org/x/sync/errgroup"
)

// MaxBudget is the largest edit budget the config and the IPC server accept.
// The library itself takes any budget that is not negative.
const MaxBudget = 8

// RankMode selects the key survivors are sorted by.
type RankMode string

const (
	// RankOffset sorts by the raw match end offset, descending.
	RankOffset RankMode = "offset"
	// RankSimilarity sorts by 1 - d/m, d being the smallest budget that matches.
	RankSimilarity RankMode = "similarity"
)

// Candidate is a document path handed in by a candidate source.
type Candidate struct {
	Text     string
	Index    int
	Modified time.Time
}

// Match is a candidate that survived filtering.
type Match struct {
	Candidate
	Offset   int
	Distance int
	Score    float64
	Title    string
	Snippet  string
}

// Display returns the snippet, or the title when the query has no literal
// occurrence in the path.
func (m Match) Display() string {
	if m.Snippet == snippet.NoMatches {
		return m.Title
	}
	return m.Snippet
}

// Options tune filtering, ranking and display.
type Options struct {
	MaxEdits   int
	MinOffset  int
	Lookahead  int
	Bold       bool
	IgnoreCase bool
	Rank       RankMode
	Workers    int
	Limit      int
}

// DefaultOptions returns the options the matcher was tuned with:
// budget 2 and only offsets above 5 accepted.
func DefaultOptions() Options {
	return Options{
		MaxEdits:  2,
		MinOffset: 5,
		Lookahead: snippet.DefaultLookahead,
		Rank:      RankOffset,
		Workers:   1,
	}
}

type Engine struct {
	opts      Options
	formatter snippet.Formatter
}

func NewEngine(opts Options) *Engine {
	if opts.Rank == "" {
		opts.Rank = RankOffset
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		opts:      opts,
		formatter: snippet.Formatter{Lookahead: opts.Lookahead, Bold: opts.Bold},
	}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Search matches query against every candidate with budget k and returns the
// survivors best first. An oversized query returns bitap.ErrOversizedPattern
// and no matches; callers show that as an empty result.
func (e *Engine) Search(candidates []Candidate, query string, k int) ([]Match, error) {
	if k < 0 {
		return nil, bitap.ErrNegativeBudget
	}
	if query == "" || len(candidates) == 0 {
		return nil, nil
	}

	needle := query
	if e.opts.IgnoreCase {
		needle = strings.ToLower(query)
	}
	pattern, err := bitap.Compile(needle)
	if err != nil {
		log.Debugf("Rejected query %q: %v", query, err)
		return nil, err
	}

	start := time.Now()
	slots := make([]*Match, len(candidates))
	if e.opts.Workers > 1 && len(candidates) > 1 {
		var g errgroup.Group
		g.SetLimit(e.opts.Workers)
		for i := range candidates {
			g.Go(func() error {
				slots[i] = e.evaluate(pattern, candidates[i], k)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range candidates {
			slots[i] = e.evaluate(pattern, candidates[i], k)
		}
	}

	matches := make([]Match, 0, len(candidates))
	for _, m := range slots {
		if m != nil {
			matches = append(matches, *m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if e.opts.Limit > 0 && len(matches) > e.opts.Limit {
		matches = matches[:e.opts.Limit]
	}

	for i := range matches {
		matches[i].Snippet = e.formatter.Format(matches[i].Text, query)
		if e.opts.IgnoreCase && matches[i].Snippet == snippet.NoMatches {
			matches[i].Snippet = e.formatter.FormatFold(matches[i].Text, query)
		}
	}

	log.Debugf("Query %q: %d/%d candidates matched in %v", query, len(matches), len(candidates), time.Since(start))
	return matches, nil
}

// evaluate returns nil when the candidate is filtered out.
func (e *Engine) evaluate(pattern *bitap.Pattern, c Candidate, k int) *Match {
	text := c.Text
	if e.opts.IgnoreCase {
		text = strings.ToLower(text)
	}

	m := &Match{Candidate: c, Title: title(c.Text)}

	switch e.opts.Rank {
	case RankSimilarity:
		d, off := pattern.Distance(text, k)
		if off == bitap.NoMatch {
			return nil
		}
		m.Offset, m.Distance = off, d
		m.Score = similarity(pattern, d, m.Title)
	default:
		off := pattern.Match(text, k)
		if off == bitap.NoMatch || off <= e.opts.MinOffset {
			return nil
		}
		m.Offset, m.Distance = off, bitap.NoMatch
		m.Score = float64(off)
	}
	return m
}

// similarity is 1 - d/m plus a Jaro-Winkler tie breaker scaled below one
// edit step, so a closer match always outranks a better-looking name.
func similarity(pattern *bitap.Pattern, d int, name string) float64 {
	m := pattern.Len()
	if m == 0 {
		return 1
	}
	step := 1 / float64(m)
	score := 1 - float64(d)*step

	jw, err := edlib.StringsSimilarity(strings.ToLower(pattern.String()), strings.ToLower(name), edlib.JaroWinkler)
	if err != nil {
		return score
	}
	return score + float64(jw)*step*0.5
}

// title is the base name without extension, handling both path separators.
func title(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
