package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="result">
  <h2 class="result__title"><a href="https://go.dev">The Go Programming Language</a></h2>
  <a class="result__snippet">Build simple, secure, scalable systems with Go.</a>
</div>
<div class="result">
  <h2 class="result__title"><a href="https://pkg.go.dev">Go Packages</a></h2>
  <a class="result__snippet">Discover and evaluate Go packages.</a>
</div>
<div class="result">
  <h2 class="result__title"><a href="https://example.com"></a></h2>
  <a class="result__snippet">A result without a title is dropped.</a>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	results, err := ParseSearchResults(strings.NewReader(searchPage))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].URL)
	assert.Equal(t, "Build simple, secure, scalable systems with Go.", results[0].Snippet)
	assert.Equal(t, "Go Packages", results[1].Title)
}

func TestParseSearchResults_Empty(t *testing.T) {
	results, err := ParseSearchResults(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWebSearchTool_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{BaseURL: srv.URL, RateLimit: 100})

	out, err := tool.Invoke(context.Background(), "golang")
	require.NoError(t, err)
	assert.Contains(t, out, `Search results for "golang"`)
	assert.Contains(t, out, "1. The Go Programming Language")
	assert.Contains(t, out, "2. Go Packages")
}

func TestWebSearchTool_MaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{BaseURL: srv.URL, MaxResults: 1, RateLimit: 100})

	out, err := tool.Invoke(context.Background(), "golang")
	require.NoError(t, err)
	assert.Contains(t, out, "1. The Go Programming Language")
	assert.NotContains(t, out, "Go Packages")
}

func TestWebSearchTool_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{BaseURL: srv.URL, RateLimit: 100})

	out, err := tool.Invoke(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}

func TestWebSearchTool_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{BaseURL: srv.URL, RateLimit: 100})

	_, err := tool.Invoke(context.Background(), "golang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search returned status 429")
}
