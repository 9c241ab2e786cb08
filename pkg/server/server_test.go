package server

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/docsearch/pkg/recent"
	"github.com/bastiangx/docsearch/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type fixture struct {
	dir    string
	list   string
	files  []string
	store  *recent.Store
	index  *search.Index
	engine *search.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{dir: dir, list: filepath.Join(dir, "recent.txt")}
	for _, name := range []string{"quarterly budget report final.xlsx", "notes.txt", "Quotes.docx"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		f.files = append(f.files, p)
	}
	require.NoError(t, os.WriteFile(f.list, []byte(f.files[0]+"\n"+f.files[1]+"\n"), 0644))

	f.store = recent.NewStore(nil)
	require.NoError(t, f.store.Reload([]string{f.list}))
	f.index = search.NewIndex()
	f.index.Rebuild(f.store.Candidates())
	f.engine = search.NewEngine(search.DefaultOptions())
	return f
}

// run feeds the requests to a server and returns a decoder over its output.
func (f *fixture) run(t *testing.T, requests ...any) *msgpack.Decoder {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range requests {
		require.NoError(t, enc.Encode(r))
	}

	s := NewServer(f.engine, f.store, f.index, Options{MaxEdits: 2, DefaultLimit: 10, Lists: []string{f.list}}, &in, &out)
	require.NoError(t, s.Start())

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	return dec
}

func next[T any](t *testing.T, dec *msgpack.Decoder) T {
	t.Helper()
	var v T
	require.NoError(t, dec.Decode(&v))
	return v
}

func budget(k int) *int { return &k }

func TestServerSearch(t *testing.T) {
	f := newFixture(t)
	dec := f.run(t,
		Request{ID: "req_001", Query: "quarterly"},
		Request{ID: "req_002", Action: ActionSearch, Query: "quarterly", Budget: budget(0), Limit: 1},
	)

	for _, id := range []string{"req_001", "req_002"} {
		resp := next[SearchResponse](t, dec)
		assert.Equal(t, id, resp.ID)
		require.Equal(t, 1, resp.Count)
		require.Len(t, resp.Results, 1)

		r := resp.Results[0]
		assert.Equal(t, f.files[0], r.Path)
		assert.Equal(t, "quarterly budget report final", r.Title)
		assert.Contains(t, r.Snippet, "quarterly")
		assert.Equal(t, uint16(1), r.Rank)
		assert.Greater(t, r.Offset, 5)
		assert.Equal(t, float64(r.Offset), r.Score)
	}
}

func TestServerSearchValidation(t *testing.T) {
	f := newFixture(t)
	dec := f.run(t,
		Request{ID: "empty"},
		Request{ID: "long", Query: strings.Repeat("a", 32)},
		Request{ID: "budget", Query: "budget", Budget: budget(MaxBudget + 1)},
		Request{ID: "negative", Query: "budget", Budget: budget(-1)},
		Request{ID: "action", Action: "delete"},
		42,
	)

	resp := next[ErrorResponse](t, dec)
	assert.Equal(t, "empty", resp.ID)
	assert.Equal(t, 400, resp.Code)

	resp = next[ErrorResponse](t, dec)
	assert.Equal(t, "long", resp.ID)
	assert.Equal(t, "query exceeds maximum length of 31 characters", resp.Error)
	assert.Equal(t, 400, resp.Code)

	for _, id := range []string{"budget", "negative"} {
		resp = next[ErrorResponse](t, dec)
		assert.Equal(t, id, resp.ID)
		assert.Equal(t, "k must be between 0 and 8", resp.Error)
	}

	resp = next[ErrorResponse](t, dec)
	assert.Equal(t, "Unknown action: delete", resp.Error)

	resp = next[ErrorResponse](t, dec)
	assert.Equal(t, "Invalid msgpack request", resp.Error)
	assert.Equal(t, 400, resp.Code)
}

func TestServerClampsDefaultBudget(t *testing.T) {
	f := newFixture(t)
	var in, out bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&in).Encode(Request{ID: "1", Query: "quarterly"}))

	s := NewServer(f.engine, f.store, f.index, Options{MaxEdits: MaxBudget + 1, DefaultLimit: 10}, &in, &out)
	require.NoError(t, s.Start())

	dec := msgpack.NewDecoder(&out)
	assert.Equal(t, "ready", next[StatusResponse](t, dec).Status)

	// an error frame would decode with an empty result list
	resp := next[SearchResponse](t, dec)
	assert.Equal(t, "1", resp.ID)
	require.NotEmpty(t, resp.Results)
	paths := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		paths[i] = r.Path
	}
	assert.Contains(t, paths, f.files[0])
}

func TestServerRejectsInvalidUTF8(t *testing.T) {
	f := newFixture(t)
	dec := f.run(t, Request{ID: "bad", Query: "bud\xffget"})

	resp := next[ErrorResponse](t, dec)
	assert.Equal(t, "bad", resp.ID)
	assert.Equal(t, "Query is not valid UTF-8", resp.Error)
	assert.Equal(t, 400, resp.Code)
}

func TestServerComplete(t *testing.T) {
	f := newFixture(t)
	dec := f.run(t,
		Request{ID: "c1", Action: ActionComplete, Prefix: "Qu"},
		Request{ID: "c2", Action: ActionComplete, Prefix: "r"},
		Request{ID: "c3", Action: ActionComplete, Prefix: "20"},
		Request{ID: "c4", Action: ActionComplete},
	)

	resp := next[CompleteResponse](t, dec)
	assert.Equal(t, "c1", resp.ID)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, CompletionSuggestion{Word: "Quarterly", Rank: 1}, resp.Suggestions[0])

	resp = next[CompleteResponse](t, dec)
	assert.Equal(t, []CompletionSuggestion{{Word: "report", Rank: 1}}, resp.Suggestions)

	resp = next[CompleteResponse](t, dec)
	assert.Equal(t, "c3", resp.ID)
	assert.Zero(t, resp.Count)

	errResp := next[ErrorResponse](t, dec)
	assert.Equal(t, "c4", errResp.ID)
	assert.Equal(t, 400, errResp.Code)
}

func TestServerReloadAndHealth(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.list, []byte(strings.Join(f.files, "\n")+"\n"), 0644))

	dec := f.run(t,
		Request{ID: "h1", Action: ActionHealth},
		Request{ID: "r1", Action: ActionReload},
		Request{ID: "h2", Action: ActionHealth},
		Request{ID: "c1", Action: ActionComplete, Prefix: "quo"},
	)

	health := next[StatusResponse](t, dec)
	assert.Equal(t, StatusResponse{ID: "h1", Status: "ok", Documents: 2}, health)

	reload := next[StatusResponse](t, dec)
	assert.Equal(t, "ok", reload.Status)
	assert.Equal(t, 3, reload.Documents)
	assert.Equal(t, 6, reload.Words)

	health = next[StatusResponse](t, dec)
	assert.Equal(t, 3, health.Documents)

	complete := next[CompleteResponse](t, dec)
	assert.Equal(t, []CompletionSuggestion{{Word: "quotes", Rank: 1}}, complete.Suggestions)
}

func TestServerWithoutIndex(t *testing.T) {
	f := newFixture(t)
	f.index = nil
	dec := f.run(t, Request{ID: "c1", Action: ActionComplete, Prefix: "qu"})

	resp := next[ErrorResponse](t, dec)
	assert.Equal(t, "Word index is disabled", resp.Error)
}
