package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/docsearch/internal/logger"
	"github.com/bastiangx/docsearch/internal/utils"
	"github.com/bastiangx/docsearch/pkg/bitap"
	"github.com/bastiangx/docsearch/pkg/recent"
	"github.com/bastiangx/docsearch/pkg/search"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// MaxBudget is the largest edit budget a request may ask for.
const MaxBudget = search.MaxBudget

// Options carries the config values the server falls back to.
type Options struct {
	MaxEdits     int
	DefaultLimit int
	// Lists are re-read on a reload request.
	Lists []string
}

// Server handles the IPC for document search
type Server struct {
	engine *search.Engine
	store  *recent.Store
	index  *search.Index
	opts   Options
	log    *log.Logger

	decoder *msgpack.Decoder
	writer  *bufio.Writer
	encoder *msgpack.Encoder
}

// NewServer creates a search server reading requests from r and writing
// responses to w. index may be nil, completion requests then fail.
func NewServer(engine *search.Engine, store *recent.Store, index *search.Index, opts Options, r io.Reader, w io.Writer) *Server {
	if opts.DefaultLimit < 1 {
		opts.DefaultLimit = 10
	}
	if opts.MaxEdits < 0 || opts.MaxEdits > MaxBudget {
		clamped := min(max(opts.MaxEdits, 0), MaxBudget)
		log.Warnf("Default edit budget %d is outside [0, %d], using %d", opts.MaxEdits, MaxBudget, clamped)
		opts.MaxEdits = clamped
	}
	bw := bufio.NewWriter(w)
	return &Server{
		engine:  engine,
		store:   store,
		index:   index,
		opts:    opts,
		log:     logger.New("server"),
		decoder: msgpack.NewDecoder(bufio.NewReader(r)),
		writer:  bw,
		encoder: msgpack.NewEncoder(bw),
	}
}

// Start begins listening for IPC requests. It returns nil when the input
// is closed.
func (s *Server) Start() error {
	s.log.Debug("Starting Server.")
	s.sendResponse(StatusResponse{Status: "ready"})

	for {
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				s.log.Warn("Input closed in the middle of a request")
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return err
		}
		s.handleRequest(raw)
	}
}

// handleRequest decodes one frame and dispatches on its action
func (s *Server) handleRequest(raw msgpack.RawMessage) {
	var request Request
	if err := msgpack.Unmarshal(raw, &request); err != nil {
		s.log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "Invalid msgpack request", 400)
		return
	}

	switch request.Action {
	case "", ActionSearch:
		s.handleSearch(request)
	case ActionComplete:
		s.handleComplete(request)
	case ActionReload:
		s.handleReload(request)
	case ActionHealth:
		s.sendResponse(StatusResponse{ID: request.ID, Status: "ok", Documents: s.store.Len()})
	default:
		s.sendError(request.ID, fmt.Sprintf("Unknown action: %s", request.Action), 400)
	}
}

func (s *Server) handleSearch(request Request) {
	if err := utils.CheckQuery(request.Query, bitap.MaxPatternLen); err != nil {
		s.log.Debugf("Rejected query %q: %v", request.Query, err)
		switch {
		case errors.Is(err, utils.ErrQueryTooLong):
			s.sendError(request.ID, fmt.Sprintf("query exceeds maximum length of %d characters", bitap.MaxPatternLen), 400)
		case errors.Is(err, utils.ErrInvalidQuery):
			s.sendError(request.ID, "Query is not valid UTF-8", 400)
		default:
			s.sendError(request.ID, "Missing 'q' parameter", 400)
		}
		return
	}

	k := s.opts.MaxEdits
	if request.Budget != nil {
		k = *request.Budget
	}
	if k < 0 || k > MaxBudget {
		s.sendError(request.ID, fmt.Sprintf("k must be between 0 and %d", MaxBudget), 400)
		return
	}

	limit := request.Limit
	if limit < 1 {
		limit = s.opts.DefaultLimit
	}

	start := time.Now()
	matches, err := s.engine.Search(s.store.Candidates(), request.Query, k)
	if err != nil {
		s.log.Errorf("Search %q failed: %v", request.Query, err)
		s.sendError(request.ID, "Internal server error", 500)
		return
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	elapsed := time.Since(start)

	ranks := utils.CreateRankList(len(matches))
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Path:    m.Text,
			Title:   m.Title,
			Snippet: m.Snippet,
			Offset:  m.Offset,
			Score:   m.Score,
			Rank:    ranks[i],
		}
	}

	s.sendResponse(SearchResponse{
		ID:        request.ID,
		Results:   results,
		Count:     len(results),
		TimeTaken: elapsed.Microseconds(),
	})
}

// handleComplete keeps the capitals the client typed on the suggested words.
func (s *Server) handleComplete(request Request) {
	if s.index == nil {
		s.sendError(request.ID, "Word index is disabled", 400)
		return
	}
	if request.Prefix == "" {
		s.sendError(request.ID, "Missing 'p' parameter", 400)
		return
	}
	if !utils.IsValidPrefix(request.Prefix) {
		s.sendResponse(CompleteResponse{ID: request.ID, Suggestions: []CompletionSuggestion{}})
		return
	}

	limit := request.Limit
	if limit < 1 {
		limit = s.opts.DefaultLimit
	}

	words := s.index.Complete(request.Prefix, limit)
	capitals := utils.CapitalPositions(request.Prefix)
	ranks := utils.CreateRankList(len(words))
	suggestions := make([]CompletionSuggestion, len(words))
	for i, w := range words {
		suggestions[i] = CompletionSuggestion{Word: utils.ApplyCapitals(w, capitals), Rank: ranks[i]}
	}
	s.sendResponse(CompleteResponse{ID: request.ID, Suggestions: suggestions, Count: len(suggestions)})
}

func (s *Server) handleReload(request Request) {
	status := "ok"
	if err := s.store.Reload(s.opts.Lists); err != nil {
		s.log.Warnf("Reload finished with errors: %v", err)
		status = "partial"
	}
	words := 0
	if s.index != nil {
		s.index.Rebuild(s.store.Candidates())
		words = s.index.Stats()["indexedWords"]
	}
	s.sendResponse(StatusResponse{ID: request.ID, Status: status, Documents: s.store.Len(), Words: words})
}

// sendResponse encodes one msgpack frame and flushes it to the client.
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.log.Errorf("Marshaling response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}
