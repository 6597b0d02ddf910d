package goquery_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/goquery"
)

const docsPage = `<html><body>
<nav><ul><li><a href="/docs/a">A</a></li><li><a href="/docs/b">B</a></li></ul></nav>
<main>
<h1>Client Reference</h1>
<p>Create a client.</p>
<h2>Install</h2>
<pre><code>go get example.com/client</code></pre>
<h2>Usage</h2>
<p>Call the thing.</p>
<h2>Errors</h2>
<p>Handle them.</p>
</main>
<aside>sidebar</aside>
<footer>footer</footer>
</body></html>`

const articlePage = `<html><body><article>
<h1>One Headline</h1>
<p>A long article paragraph about current events, with plenty of plain prose and no code at all. It keeps going for a while to look like a real article body with natural sentence flow and detail.</p>
<p>Another paragraph continues the story with more narrative text, quotes, and context so the page reads as an article rather than reference documentation.</p>
</article></body></html>`

func TestDetectorDetect(t *testing.T) {
	t.Parallel()

	detector := goquery.NewDetector()

	t.Run("code blocks plus headings mean docs", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, webtk.StrategyDocs, detector.Detect(docsPage, ""))
	})

	t.Run("plain article means readability", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, webtk.StrategyReadability, detector.Detect(articlePage, "https://news.example.com/story"))
	})

	t.Run("docs path segment wins", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, webtk.StrategyDocs, detector.Detect(articlePage, "https://example.com/docs/intro"))
		assert.Equal(t, webtk.StrategyDocs, detector.Detect(articlePage, "https://example.com/api/v2/users"))
	})

	t.Run("dense headings mean docs", func(t *testing.T) {
		t.Parallel()
		paragraph := strings.Repeat("An option and what it does. ", 5)
		var b strings.Builder
		b.WriteString("<html><body><main>")
		for i := 0; i < 8; i++ {
			b.WriteString("<h2>Topic</h2><p>" + paragraph + "</p>")
		}
		b.WriteString("</main></body></html>")
		assert.Equal(t, webtk.StrategyDocs, detector.Detect(b.String(), ""))
	})
}
