package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
)

const ddgsFixture = `<html><body>
<div class="result">
  <a class="result__a" href="/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=abc">The Go Programming Language</a>
  <div class="result__snippet">Build simple, secure, scalable systems.</div>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev/std">Standard library</a>
  <div class="result__snippet">Package index.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/three">Three</a>
</div>
</body></html>`

func TestDDGSProviderSearch(t *testing.T) {
	t.Parallel()

	t.Run("parses results and unwraps redirects", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "golang", r.PostForm.Get("q"))
			_, _ = w.Write([]byte(ddgsFixture))
		}))
		defer server.Close()

		provider := &DDGSProvider{client: server.Client(), endpoint: server.URL}
		results, err := provider.Search(context.Background(), webtk.SearchQuery{Query: "golang", MaxResults: 2})
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "https://go.dev/", results[0].URL)
		assert.Equal(t, "The Go Programming Language", results[0].Title)
		assert.Equal(t, "Build simple, secure, scalable systems.", results[0].Snippet)
		assert.Equal(t, "https://pkg.go.dev/std", results[1].URL)
	})

	t.Run("non-200 is a provider error", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		provider := &DDGSProvider{client: server.Client(), endpoint: server.URL}
		_, err := provider.Search(context.Background(), webtk.SearchQuery{Query: "q", MaxResults: 1})
		assert.Equal(t, webtk.EPROVIDER, webtk.ErrorCode(err))
	})

	t.Run("always enabled", func(t *testing.T) {
		t.Parallel()
		enabled, reason := NewDDGSProvider(Config{}).Enabled()
		assert.True(t, enabled)
		assert.Empty(t, reason)
	})
}
