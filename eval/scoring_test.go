package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/eval"
)

func results(urls ...string) []webtk.SearchResult {
	out := make([]webtk.SearchResult, 0, len(urls))
	for _, url := range urls {
		out = append(out, webtk.SearchResult{Title: "t", URL: url, SourceProvider: "mock"})
	}
	return out
}

func TestScoreURLCriteria(t *testing.T) {
	t.Parallel()

	t.Run("hit at rank two yields mrr one half", func(t *testing.T) {
		t.Parallel()
		c := webtk.EvalCase{ID: "c", Query: "q", ExpectedURLs: []string{"https://go.dev/doc/"}}
		score := eval.Score(results(
			"https://other.org/",
			"https://go.dev/doc",
			"https://third.org/",
		), c, 10)

		assert.True(t, score.URLHit)
		assert.Equal(t, 2, score.URLFirstHitRank)
		assert.InDelta(t, 0.5, score.URLMRR, 0.001)
		assert.Equal(t, []string{"https://go.dev/doc/"}, score.MatchedURLs)
		assert.True(t, eval.Hit(score))
		assert.InDelta(t, 0.5, eval.MRR(score), 0.001)
	})

	t.Run("normalization matches across scheme case and trailing slash", func(t *testing.T) {
		t.Parallel()
		c := webtk.EvalCase{ID: "c", Query: "q", ExpectedURLs: []string{"HTTPS://Example.COM/page/"}}
		score := eval.Score(results("https://example.com/page"), c, 10)
		assert.True(t, score.URLHit)
	})

	t.Run("hit outside top k does not count", func(t *testing.T) {
		t.Parallel()
		c := webtk.EvalCase{ID: "c", Query: "q", ExpectedURLs: []string{"https://deep.example.com/"}}
		score := eval.Score(results(
			"https://a.org/", "https://b.org/", "https://deep.example.com/",
		), c, 2)
		assert.False(t, score.URLHit)
		assert.Zero(t, score.URLMRR)
	})

	t.Run("case-level k overrides the run k", func(t *testing.T) {
		t.Parallel()
		c := webtk.EvalCase{ID: "c", Query: "q", K: 3, ExpectedURLs: []string{"https://deep.example.com/"}}
		score := eval.Score(results(
			"https://a.org/", "https://b.org/", "https://deep.example.com/",
		), c, 2)
		assert.True(t, score.URLHit)
		assert.Equal(t, 3, score.K)
	})
}

func TestScoreDomainCriteria(t *testing.T) {
	t.Parallel()

	c := webtk.EvalCase{ID: "c", Query: "q", ExpectedDomains: []string{"python.org"}}
	score := eval.Score(results(
		"https://other.org/",
		"https://docs.python.org/3/",
	), c, 10)

	assert.True(t, score.DomainHit)
	assert.Equal(t, 2, score.DomainFirstRank)
	assert.InDelta(t, 0.5, score.DomainMRR, 0.001)
	assert.Equal(t, []string{"python.org"}, score.MatchedDomains)
	assert.True(t, eval.Hit(score))
}

func TestScoreNoCriteria(t *testing.T) {
	t.Parallel()

	c := webtk.EvalCase{ID: "c", Query: "q"}
	score := eval.Score(results("https://a.org/"), c, 10)
	assert.False(t, score.HasURLCriteria)
	assert.False(t, score.HasDomainCriteria)
	assert.False(t, eval.Hit(score))
}

func TestScoreEmptyResults(t *testing.T) {
	t.Parallel()

	c := webtk.EvalCase{ID: "c", Query: "q", ExpectedURLs: []string{"https://x.org/"}}
	score := eval.Score(nil, c, 10)
	require.NotNil(t, score)
	assert.False(t, score.URLHit)
}
