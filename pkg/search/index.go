package search

import (
	"strings"
	"sync"
	"unicode"

	"github.com/bastiangx/docsearch/pkg/trie"
	"github.com/charmbracelet/log"
)

// Index keeps the words found in candidate file names in a prefix trie so a
// client can complete partially typed queries. It is not consulted by Search.
type Index struct {
	mu      sync.RWMutex
	words   *trie.Trie
	skipped int
}

func NewIndex() *Index {
	return &Index{words: trie.New()}
}

// Add tokenizes the base name of every candidate into lowercase letter runs
// and inserts them. Tokens with letters outside a-z are skipped.
func (ix *Index) Add(candidates []Candidate) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.add(candidates)
}

// Rebuild replaces the indexed words with those of candidates in one step.
func (ix *Index) Rebuild(candidates []Candidate) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.words = trie.New()
	ix.skipped = 0
	ix.add(candidates)
}

func (ix *Index) add(candidates []Candidate) {
	for _, c := range candidates {
		for _, word := range Tokenize(title(c.Text)) {
			if err := ix.words.Insert(word); err != nil {
				ix.skipped++
				log.Debugf("Skipping index token: %v", err)
			}
		}
	}
}

// Reset drops every indexed word.
func (ix *Index) Reset() {
	ix.Rebuild(nil)
}

// Complete returns up to limit indexed words starting with prefix.
// A limit of zero or less means no limit.
func (ix *Index) Complete(prefix string, limit int) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var words []string
	for word := range ix.words.PrefixSearch(strings.ToLower(prefix)) {
		words = append(words, word)
		if limit > 0 && len(words) >= limit {
			break
		}
	}
	return words
}

func (ix *Index) Has(word string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.words.Contains(strings.ToLower(word))
}

func (ix *Index) Lookup(word string) trie.Status {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.words.Lookup(strings.ToLower(word))
}

func (ix *Index) Stats() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return map[string]int{
		"indexedWords":  ix.words.Len(),
		"skippedTokens": ix.skipped,
	}
}

// Tokenize splits s into lowercase runs of letters. Digits, separators and
// punctuation end a token.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}
