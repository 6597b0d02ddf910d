package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
)

func TestSearxngProviderSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Result", "url": "https://example.com/", "content": "snippet", "score": 1.5},
			},
		})
	}))
	defer server.Close()

	provider := &SearxngProvider{
		client:  server.Client(),
		baseURL: func() string { return server.URL },
	}
	results, err := provider.Search(context.Background(), webtk.SearchQuery{Query: "q", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "searxng_local", results[0].SourceProvider)
	require.NotNil(t, results[0].Score)
	assert.InDelta(t, 1.5, *results[0].Score, 0.001)
}

func TestFirecrawlProviderSearch(t *testing.T) {
	t.Parallel()

	t.Run("posts the query and parses data", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/search", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer fckey", r.Header.Get("Authorization"))

			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "golang", payload["query"])

			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"title": "Hit", "url": "https://example.com/hit", "description": "found"},
				},
			})
		}))
		defer server.Close()

		provider := &FirecrawlProvider{
			client:  server.Client(),
			baseURL: func() string { return server.URL },
			apiKey:  func() string { return "fckey" },
		}
		results, err := provider.Search(context.Background(), webtk.SearchQuery{Query: "golang", MaxResults: 3})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "firecrawl_endpoint", results[0].SourceProvider)
	})

	t.Run("locality detection", func(t *testing.T) {
		t.Parallel()
		local := &FirecrawlProvider{baseURL: func() string { return "http://localhost:3002" }}
		remote := &FirecrawlProvider{baseURL: func() string { return "https://api.firecrawl.dev" }}
		assert.True(t, local.Local())
		assert.False(t, remote.Local())
	})
}
