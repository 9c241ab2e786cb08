/*
Package server implements msgpack IPC for document search.

The server reads a stream of msgpack maps from stdin and writes one msgpack
map per request to stdout. Logs never go to stdout.

# IPC

The server operates on a request response model. Each message has an ID
field that is echoed back, and an action; an empty action means search.

Search requests use mainly this structure:

	{"id": "req_001", "q": "budget", "k": 2, "l": 10}

The server responds with matches best first:

	{"id": "req_001", "r": [{"p": "C:/docs/quarterly budget report final.xlsx", "t": "quarterly budget report final", "s": "...ly budget re...", "o": 18, "sc": 18, "r": 1}], "c": 1, "t": 145}

k defaults to search.max_edits and l to cli.default_limit from the config.

Completion requests ask the word index for indexed words starting with p:

	{"id": "cmp_001", "action": "complete", "p": "re", "l": 5}

Management requests:

	{"id": "adm_001", "action": "reload"}
	{"id": "adm_002", "action": "health"}

Failures answer with an error map carrying an HTTP-like code:

	{"id": "req_002", "e": "query exceeds maximum length of 31 characters", "c": 400}

Right after start the server emits {"status": "ready"}.
*/
package server

const (
	ActionSearch   = "search"
	ActionComplete = "complete"
	ActionReload   = "reload"
	ActionHealth   = "health"
)

// Request is any client message; fields unused by the action are ignored.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`
	Query  string `msgpack:"q,omitempty"`
	Budget *int   `msgpack:"k,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
	Prefix string `msgpack:"p,omitempty"`
}

// SearchResult - one ranked document
type SearchResult struct {
	Path    string  `msgpack:"p"`
	Title   string  `msgpack:"t"`
	Snippet string  `msgpack:"s"`
	Offset  int     `msgpack:"o"`
	Score   float64 `msgpack:"sc"`
	Rank    uint16  `msgpack:"r"`
}

// SearchResponse - search response, TimeTaken is in microseconds
type SearchResponse struct {
	ID        string         `msgpack:"id"`
	Results   []SearchResult `msgpack:"r"`
	Count     int            `msgpack:"c"`
	TimeTaken int64          `msgpack:"t"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// CompleteResponse - completion response
type CompleteResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"w"`
	Count       int                    `msgpack:"c"`
}

// StatusResponse answers ready, health and reload.
type StatusResponse struct {
	ID        string `msgpack:"id,omitempty"`
	Status    string `msgpack:"status"`
	Documents int    `msgpack:"n,omitempty"`
	Words     int    `msgpack:"words,omitempty"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
