/*
Package recent keeps the list of recently used documents that queries are
matched against.

Documents are read from plain list files, one path per line, and only kept
when the file exists on disk and no exclude glob matches it. They are indexed
by path in a patricia trie so callers can list everything under a directory.
*/
package recent

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/docsearch/internal/utils"
	"github.com/bastiangx/docsearch/pkg/search"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

var (
	ErrNotExist    = errors.New("document does not exist")
	ErrIsDirectory = errors.New("document is a directory")
	ErrExcluded    = errors.New("document matches an exclude pattern")
)

// Document is one recent file, verified to exist when it was added.
type Document struct {
	Path     string
	Index    int
	Modified time.Time
	Size     int64
}

// Store holds the verified documents. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	docs     *patricia.Trie
	count    int
	next     int
	excludes []string
}

// NewStore creates an empty store. Invalid exclude patterns are dropped.
func NewStore(excludes []string) *Store {
	valid := make([]string, 0, len(excludes))
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			log.Warnf("Ignoring invalid exclude pattern: %q", pattern)
			continue
		}
		valid = append(valid, pattern)
	}
	return &Store{
		docs:     patricia.NewTrie(),
		excludes: valid,
	}
}

// Add verifies path and stores it with the next list index.
// Adding a path that is already stored keeps the first entry.
func (s *Store) Add(path string) error {
	path = filepath.Clean(utils.ExpandHome(path))
	if s.excluded(path) {
		return fmt.Errorf("%w: %s", ErrExcluded, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := patricia.Prefix(path)
	if s.docs.Get(key) != nil {
		return nil
	}
	s.next++
	s.docs.Insert(key, Document{
		Path:     path,
		Index:    s.next,
		Modified: info.ModTime(),
		Size:     info.Size(),
	})
	s.count++
	return nil
}

func (s *Store) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range s.excludes {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

// LoadList adds every path listed in listPath. Blank lines and lines starting
// with # are ignored; entries that fail verification are skipped.
// Relative entries resolve against the list file's directory.
func (s *Store) LoadList(listPath string) (int, error) {
	listPath = utils.ExpandHome(listPath)
	file, err := os.Open(listPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open recent list %s: %w", listPath, err)
	}
	defer file.Close()

	baseDir := filepath.Dir(listPath)
	added := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		before := s.Len()
		if err := s.Add(utils.ResolvePath(line, baseDir)); err != nil {
			log.Debugf("Skipping recent entry: %v", err)
			continue
		}
		if s.Len() > before {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return added, fmt.Errorf("failed to read recent list %s: %w", listPath, err)
	}

	log.Debugf("Loaded %d documents from %s", added, listPath)
	return added, nil
}

// Reload re-reads every list into a fresh set of documents and swaps it in.
// Lists that fail to load are reported, the others are still applied.
func (s *Store) Reload(lists []string) error {
	fresh := &Store{docs: patricia.NewTrie(), excludes: s.excludes}

	var errs []error
	for _, list := range lists {
		if _, err := fresh.LoadList(list); err != nil {
			log.Warnf("Failed to load recent list: %v", err)
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.docs, s.count, s.next = fresh.docs, fresh.count, fresh.next
	s.mu.Unlock()

	return errors.Join(errs...)
}

// Documents returns every document ordered by list index.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, s.count)
	_ = s.docs.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		docs = append(docs, item.(Document))
		return nil
	})
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Index < docs[j].Index
	})
	return docs
}

// Candidates converts the documents for the search engine.
func (s *Store) Candidates() []search.Candidate {
	docs := s.Documents()
	out := make([]search.Candidate, len(docs))
	for i, d := range docs {
		out[i] = search.Candidate{Text: d.Path, Index: d.Index, Modified: d.Modified}
	}
	return out
}

// Under returns the documents whose path starts with dir, ordered by index.
func (s *Store) Under(dir string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	err := s.docs.VisitSubtree(patricia.Prefix(filepath.Clean(dir)), func(_ patricia.Prefix, item patricia.Item) error {
		docs = append(docs, item.(Document))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting recent documents under %s: %v", dir, err)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Index < docs[j].Index
	})
	return docs
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
