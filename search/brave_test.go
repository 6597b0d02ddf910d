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

func TestBraveProviderSearch(t *testing.T) {
	t.Parallel()

	t.Run("parses web results", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "token123", r.Header.Get("X-Subscription-Token"))
			assert.Equal(t, "golang", r.URL.Query().Get("q"))
			assert.Equal(t, "5", r.URL.Query().Get("count"))

			_ = json.NewEncoder(w).Encode(map[string]any{
				"web": map[string]any{
					"results": []map[string]any{
						{"title": "Go", "url": "https://go.dev/", "description": "The Go language"},
						{"title": "", "url": "https://skip.me/"},
						{"title": "Docs", "url": "https://go.dev/doc/", "description": "Documentation"},
					},
				},
			})
		}))
		defer server.Close()

		provider := &BraveProvider{
			client:   server.Client(),
			endpoint: server.URL,
			apiKey:   func() string { return "token123" },
		}

		results, err := provider.Search(context.Background(), webtk.SearchQuery{Query: "golang", MaxResults: 5})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Go", results[0].Title)
		assert.Equal(t, "https://go.dev/", results[0].URL)
		assert.Equal(t, "The Go language", results[0].Snippet)
		assert.Equal(t, "brave_api", results[0].SourceProvider)
		assert.NotEmpty(t, results[0].ResultID)
	})

	t.Run("region and freshness map to brave parameters", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "US", r.URL.Query().Get("country"))
			assert.Equal(t, "en", r.URL.Query().Get("search_lang"))
			assert.Equal(t, "pw", r.URL.Query().Get("freshness"))
			_, _ = w.Write([]byte(`{"web":{"results":[]}}`))
		}))
		defer server.Close()

		provider := &BraveProvider{
			client:   server.Client(),
			endpoint: server.URL,
			apiKey:   func() string { return "k" },
		}
		_, err := provider.Search(context.Background(), webtk.SearchQuery{
			Query:      "q",
			MaxResults: 3,
			Region:     "us-en",
			TimeRange:  "w",
		})
		require.NoError(t, err)
	})

	t.Run("401 reports an auth failure", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		provider := &BraveProvider{
			client:   server.Client(),
			endpoint: server.URL,
			apiKey:   func() string { return "bad" },
		}
		_, err := provider.Search(context.Background(), webtk.SearchQuery{Query: "q", MaxResults: 1})
		assert.Equal(t, webtk.EPROVIDER, webtk.ErrorCode(err))
		assert.Contains(t, webtk.ErrorMessage(err), "BRAVE_API_KEY")
	})

	t.Run("missing key is a provider error", func(t *testing.T) {
		t.Parallel()
		provider := &BraveProvider{
			client: http.DefaultClient,
			apiKey: func() string { return "" },
		}
		_, err := provider.Search(context.Background(), webtk.SearchQuery{Query: "q", MaxResults: 1})
		assert.Equal(t, webtk.EPROVIDER, webtk.ErrorCode(err))
	})
}
