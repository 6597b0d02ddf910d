package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/mock"
	"github.com/tmustier/webtk/pipeline"
)

func fixedResults(urls ...string) []webtk.SearchResult {
	results := make([]webtk.SearchResult, 0, len(urls))
	for _, url := range urls {
		results = append(results, webtk.SearchResult{
			Title:          "Title",
			URL:            url,
			SourceProvider: "mock",
			ResultID:       url,
		})
	}
	return results
}

func registryWith(results []webtk.SearchResult) *mock.ProviderRegistry {
	provider := &mock.SearchProvider{
		IDFn: func() string { return "mock" },
		SearchFn: func(ctx context.Context, query webtk.SearchQuery) ([]webtk.SearchResult, error) {
			return results, nil
		},
	}
	return &mock.ProviderRegistry{
		SelectFn: func(id string) (webtk.SearchProvider, error) { return provider, nil },
	}
}

func TestPipelinePlan(t *testing.T) {
	t.Parallel()

	runner := newTestRunner()
	runner.Registry = registryWith(fixedResults(
		"https://a.example.com/1",
		"https://b.example.com/2",
		"https://c.example.com/3",
	))
	runner.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string, opts webtk.FetchOptions) (*webtk.FetchResult, error) {
			t.Fatal("plan mode must not fetch")
			return nil, nil
		},
	}

	out, err := runner.Run(context.Background(), pipeline.PipelineRequest{
		Query:    webtk.SearchQuery{Query: "q"},
		Provider: "auto",
		TopK:     3,
		ExtractK: 2,
		Plan:     true,
	})
	require.NoError(t, err)
	assert.True(t, out.Plan)
	assert.Len(t, out.Candidates, 2)
	assert.Empty(t, out.Documents)
	assert.Equal(t, []string{"mock"}, out.Providers)
}

func TestPipelineRerank(t *testing.T) {
	t.Parallel()

	runner := newTestRunner()
	runner.Registry = registryWith(fixedResults(
		"https://first.example.com/",
		"https://second.example.com/",
		"https://docs.python.org/3/library/asyncio.html",
	))

	out, err := runner.Run(context.Background(), pipeline.PipelineRequest{
		Query:         webtk.SearchQuery{Query: "python asyncio"},
		Provider:      "auto",
		TopK:          3,
		ExtractK:      3,
		PreferDomains: []string{"python.org"},
		Plan:          true,
	})
	require.NoError(t, err)

	require.Len(t, out.Candidates, 3)
	assert.Equal(t, "https://docs.python.org/3/library/asyncio.html", out.Candidates[0].Result.URL)
	assert.Equal(t, "preferred_domain", out.Candidates[0].Reason)
	assert.Equal(t, "python.org", out.Candidates[0].PreferredDomain)
	// Original order within the non-preferred bucket.
	assert.Equal(t, "https://first.example.com/", out.Candidates[1].Result.URL)
	assert.Equal(t, "https://second.example.com/", out.Candidates[2].Result.URL)
	assert.Equal(t, "top_rank", out.Candidates[1].Reason)
}

func TestPipelineDomainFilter(t *testing.T) {
	t.Parallel()

	runner := newTestRunner()
	runner.Policy.BlockDomains = []string{"spam.example.com"}
	runner.Registry = registryWith(fixedResults(
		"https://spam.example.com/x",
		"https://ok.example.org/y",
	))

	out, err := runner.Run(context.Background(), pipeline.PipelineRequest{
		Query:    webtk.SearchQuery{Query: "q"},
		Provider: "auto",
		TopK:     5,
		ExtractK: 5,
		Plan:     true,
	})
	require.NoError(t, err)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "https://ok.example.org/y", out.Candidates[0].Result.URL)
}

func TestPipelineExtractsInCandidateOrder(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://one.example.com/",
		"https://two.example.com/",
		"https://three.example.com/",
		"https://four.example.com/",
	}
	runner := newTestRunner()
	runner.Registry = registryWith(fixedResults(urls...))
	runner.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string, opts webtk.FetchOptions) (*webtk.FetchResult, error) {
			// Earlier candidates finish later: ordering must still hold.
			switch url {
			case urls[0]:
				time.Sleep(30 * time.Millisecond)
			case urls[1]:
				time.Sleep(15 * time.Millisecond)
			}
			return okFetchResult(url, "<html><body>"+url+"</body></html>"), nil
		},
	}

	out, err := runner.Run(context.Background(), pipeline.PipelineRequest{
		Query:    webtk.SearchQuery{Query: "q"},
		Provider: "auto",
		TopK:     4,
		ExtractK: 4,
	})
	require.NoError(t, err)
	require.Len(t, out.Documents, 4)
	for i, doc := range out.Documents {
		assert.Equal(t, urls[i], doc.URL)
	}
	assert.Equal(t, 4, out.Fetches)
}

func TestPipelinePartialFailure(t *testing.T) {
	t.Parallel()

	runner := newTestRunner()
	runner.Registry = registryWith(fixedResults(
		"https://good.example.com/",
		"https://blocked.example.com/",
		"https://also-good.example.com/",
	))
	runner.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string, opts webtk.FetchOptions) (*webtk.FetchResult, error) {
			if url == "https://blocked.example.com/" {
				result := okFetchResult(url, "")
				result.Classification = webtk.ClassBlocked
				result.Reason = "http_403"
				return result, nil
			}
			return okFetchResult(url, "<html>fine</html>"), nil
		},
	}

	out, err := runner.Run(context.Background(), pipeline.PipelineRequest{
		Query:    webtk.SearchQuery{Query: "q"},
		Provider: "auto",
		TopK:     3,
		ExtractK: 3,
	})
	require.NoError(t, err)
	assert.Len(t, out.Documents, 2)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "https://blocked.example.com/", out.Errors[0].URL)
	assert.Equal(t, webtk.EBLOCKED, out.Errors[0].Code)
}

func TestPipelineInvalidBounds(t *testing.T) {
	t.Parallel()

	runner := newTestRunner()
	runner.Registry = registryWith(nil)

	_, err := runner.Run(context.Background(), pipeline.PipelineRequest{
		Query:    webtk.SearchQuery{Query: "q"},
		TopK:     0,
		ExtractK: 1,
	})
	assert.Equal(t, webtk.EINVALID, webtk.ErrorCode(err))
}

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("waits between requests to one domain", func(t *testing.T) {
		t.Parallel()
		limiter := pipeline.NewDomainLimiter(50)
		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, limiter.Wait(context.Background(), "example.com"))
		}
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("domains do not share buckets", func(t *testing.T) {
		t.Parallel()
		limiter := pipeline.NewDomainLimiter(1)
		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "a.com"))
		require.NoError(t, limiter.Wait(context.Background(), "b.com"))
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("canceled context aborts the wait", func(t *testing.T) {
		t.Parallel()
		limiter := pipeline.NewDomainLimiter(0.001)
		require.NoError(t, limiter.Wait(context.Background(), "slow.com"))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.Error(t, limiter.Wait(ctx, "slow.com"))
	})
}
