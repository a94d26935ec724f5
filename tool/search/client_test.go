package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/tool"
)

const bingBody = `{"webPages":{"value":[
	{"name":"Go","snippet":"The Go language","url":"https://go.dev"},
	{"name":"Tour","snippet":"A tour of Go","url":"https://go.dev/tour"},
	{"name":"Blog","snippet":"The Go blog","url":"https://go.dev/blog"},
	{"name":"Extra","snippet":"extra","url":"https://example.com"}
]}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(func(o *Options) {
		o.Endpoint = srv.URL
		o.APIKey = "secret"
		o.RequestsPerSecond = 0
	})
	require.NoError(t, err)

	return c
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		_, _ = io.WriteString(w, bingBody)
	})

	results, err := c.Search(context.Background(), "golang", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Title: Go, Snippet: The Go language, URL: https://go.dev", results[0].String())
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "invalid key")
	})

	_, err := c.Search(context.Background(), "golang", 3)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Error: 401 - invalid key", se.Error())
}

func TestClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(func(o *Options) { o.APIKey = "" })
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestClient_RateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, bingBody)
	}))
	defer srv.Close()

	c, err := NewClient(func(o *Options) {
		o.Endpoint = srv.URL
		o.APIKey = "k"
		o.RequestsPerSecond = 0.001
		o.Burst = 1
	})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "first", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Search(ctx, "second", 1)
	assert.Error(t, err)
}

func TestTool(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, bingBody)
	})

	webSearch := NewTool(c)
	assert.Equal(t, ToolName, webSearch.Name())

	tc := core.NewToolContext(context.Background(), core.AgentInfo{Name: "web_search_agent"}, "fc1", logging.NoOpLogger{})
	out, err := webSearch.Call(tc, map[string]any{"query": "golang", "count": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, "Title: Go, Snippet: The Go language, URL: https://go.dev\nTitle: Tour, Snippet: A tour of Go, URL: https://go.dev/tour", out)
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, int) ([]Result, error) {
	return nil, &StatusError{StatusCode: 500, Body: "down"}
}

func TestTool_FailureBecomesToolError(t *testing.T) {
	tc := core.NewToolContext(context.Background(), core.AgentInfo{Name: "a"}, "fc1", nil)
	_, err := NewTool(failingSearcher{}).Call(tc, map[string]any{"query": "x"})

	var toolErr *tool.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, tool.CodeExecution, toolErr.Code)
	assert.Equal(t, "Error: 500 - down", toolErr.Message)
}

type countingSearcher struct{ count int }

func (s *countingSearcher) Search(_ context.Context, _ string, count int) ([]Result, error) {
	s.count = count
	return nil, nil
}

func TestTool_DefaultCount(t *testing.T) {
	tc := core.NewToolContext(context.Background(), core.AgentInfo{Name: "a"}, "fc1", nil)

	s := &countingSearcher{}
	out, err := NewTool(s, func(o *ToolOptions) { o.Count = 5 }).Call(tc, map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)
	assert.Equal(t, 5, s.count)

	_, err = NewTool(s).Call(tc, map[string]any{"query": "go", "count": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, s.count)
}

func TestTool_CountIsCapped(t *testing.T) {
	tc := core.NewToolContext(context.Background(), core.AgentInfo{Name: "a"}, "fc1", nil)

	s := &countingSearcher{}
	_, err := NewTool(s).Call(tc, map[string]any{"query": "go", "count": float64(500)})
	require.NoError(t, err)
	assert.Equal(t, MaxCount, s.count)
}
