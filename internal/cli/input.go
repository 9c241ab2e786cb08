// Package cli handles cmd line input for debugging searches in real time
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/docsearch/internal/logger"
	"github.com/bastiangx/docsearch/internal/utils"
	"github.com/bastiangx/docsearch/pkg/bitap"
	"github.com/bastiangx/docsearch/pkg/recent"
	"github.com/bastiangx/docsearch/pkg/search"
	"github.com/charmbracelet/log"
)

// InputHandler reads queries from stdin and prints the ranked documents.
//
// Lines starting with ? are completed against the word index, ":k N" sets
// the edit budget, anything else is searched.
type InputHandler struct {
	engine    *search.Engine
	store     *recent.Store
	index     *search.Index
	budget    int
	limit     int
	showQuery bool
	out       *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters.
// index may be nil.
func NewInputHandler(engine *search.Engine, store *recent.Store, index *search.Index, budget, limit int, showQuery bool) *InputHandler {
	return &InputHandler{
		engine:    engine,
		store:     store,
		index:     index,
		budget:    budget,
		limit:     limit,
		showQuery: showQuery,
		out:       logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter),
	}
}

// Start begins the interface loop. It returns nil once stdin is closed.
func (h *InputHandler) Start() error {
	h.out.Print("docsearch CLI [BETA]")
	h.out.Print("type a query and press Enter, ?prefix completes, :k N sets the budget (Ctrl+C to exit):")

	reader := bufio.NewReader(os.Stdin)
	for {
		h.out.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleInput(line string) {
	switch {
	case strings.HasPrefix(line, ":k"):
		h.setBudget(strings.TrimSpace(strings.TrimPrefix(line, ":k")))
	case strings.HasPrefix(line, "?"):
		h.complete(strings.TrimPrefix(line, "?"))
	default:
		h.Search(line)
	}
}

func (h *InputHandler) setBudget(arg string) {
	k, err := strconv.Atoi(arg)
	if err != nil || k < 0 {
		log.Errorf("Invalid budget: %q", arg)
		return
	}
	h.budget = k
	h.out.Printf("Budget set to %d", k)
}

func (h *InputHandler) complete(prefix string) {
	if h.index == nil {
		log.Warn("Word index is disabled, set search.index_search = true")
		return
	}
	if !utils.IsValidPrefix(prefix) {
		log.Warnf("No completions for prefix: '%s'", prefix)
		return
	}
	capitals := utils.CapitalPositions(prefix)
	words := h.index.Complete(prefix, h.limit)
	if len(words) == 0 {
		log.Warnf("No completions for prefix: '%s'", prefix)
		return
	}
	for i, w := range words {
		h.out.Printf("%2d. %s", i+1, utils.ApplyCapitals(w, capitals))
	}
}

// Search runs one query and prints the results.
func (h *InputHandler) Search(query string) {
	if err := utils.CheckQuery(query, bitap.MaxPatternLen); err != nil {
		log.Errorf("Query rejected: %v", err)
		return
	}

	start := time.Now()
	matches, err := h.engine.Search(h.store.Candidates(), query, h.budget)
	if err != nil {
		log.Errorf("Search failed: %v", err)
		return
	}
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)

	if len(matches) == 0 {
		log.Warnf("No documents found for query: '%s'", query)
		return
	}
	if h.limit > 0 && len(matches) > h.limit {
		matches = matches[:h.limit]
	}

	h.out.Printf("Found %d documents for '%s' (k=%d):", len(matches), query, h.budget)
	for i, m := range matches {
		name := m.Title
		if h.showQuery {
			name = m.Display()
		}
		label := fmt.Sprintf("\033[38;5;75m%s\033[0m", name)
		h.out.Printf("%2d. %-40s (score: %6.2f) %s", i+1, label, m.Score, m.Text)
	}
}
