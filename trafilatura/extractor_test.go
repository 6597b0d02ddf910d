package trafilatura_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/htmltomarkdown"
	"github.com/tmustier/webtk/trafilatura"
)

func articleHTML() string {
	paragraph := "The committee voted on Thursday to adopt the new framework, a decision that followed months of negotiation between the member organizations and their technical working groups."
	var b strings.Builder
	b.WriteString(`<html><head><title>Framework Adopted After Long Negotiations</title></head><body>`)
	b.WriteString(`<nav><a href="/">Home</a><a href="/about">About</a></nav>`)
	b.WriteString(`<article><h1>Framework Adopted After Long Negotiations</h1>`)
	for i := 0; i < 6; i++ {
		b.WriteString("<p>" + paragraph + "</p>")
	}
	b.WriteString(`</article><footer>Copyright</footer></body></html>`)
	return b.String()
}

func TestExtractorExtract(t *testing.T) {
	t.Parallel()

	extractor := trafilatura.NewExtractor(htmltomarkdown.NewConverter())

	t.Run("extracts the dominant article", func(t *testing.T) {
		t.Parallel()
		extracted, err := extractor.Extract(articleHTML(), "https://news.example.com/story")
		require.NoError(t, err)

		assert.Contains(t, extracted.Title, "Framework Adopted")
		assert.Contains(t, extracted.Markdown, "committee voted on Thursday")
		assert.Equal(t, trafilatura.ExtractionMethod, extracted.ExtractionMethod)
		assert.Equal(t, webtk.ExtractionVersion, extracted.ExtractionVersion)
		assert.NotEmpty(t, extracted.ContentHash)
		assert.NotEmpty(t, extracted.Text)
	})

	t.Run("boilerplate is stripped", func(t *testing.T) {
		t.Parallel()
		extracted, err := extractor.Extract(articleHTML(), "")
		require.NoError(t, err)
		assert.NotContains(t, extracted.Markdown, "About")
	})

	t.Run("content hash is stable across runs", func(t *testing.T) {
		t.Parallel()
		first, err := extractor.Extract(articleHTML(), "")
		require.NoError(t, err)
		second, err := extractor.Extract(articleHTML(), "")
		require.NoError(t, err)
		assert.Equal(t, first.ContentHash, second.ContentHash)
	})

	t.Run("empty input is an extraction error", func(t *testing.T) {
		t.Parallel()
		_, err := extractor.Extract("", "")
		assert.Equal(t, webtk.EEXTRACT, webtk.ErrorCode(err))
	})
}
