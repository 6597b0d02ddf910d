package webtk_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
)

func TestApplyLimitsMaxChars(t *testing.T) {
	t.Parallel()

	t.Run("truncates on a UTF-8 boundary with a warning", func(t *testing.T) {
		t.Parallel()
		extracted := &webtk.ExtractedContent{Markdown: strings.Repeat("héllo ", 100)}
		warnings := webtk.ApplyLimits(extracted, webtk.ExtractLimits{MaxChars: 101})

		assert.LessOrEqual(t, len(extracted.Markdown), 101+len("…"))
		assert.True(t, utf8.ValidString(extracted.Markdown))
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "truncated: chars=")
	})

	t.Run("no-op under the limit", func(t *testing.T) {
		t.Parallel()
		extracted := &webtk.ExtractedContent{Markdown: "short"}
		warnings := webtk.ApplyLimits(extracted, webtk.ExtractLimits{MaxChars: 100})
		assert.Empty(t, warnings)
		assert.Equal(t, "short", extracted.Markdown)
	})

	t.Run("zero limits disable truncation", func(t *testing.T) {
		t.Parallel()
		extracted := &webtk.ExtractedContent{Markdown: strings.Repeat("x", 10_000)}
		assert.Empty(t, webtk.ApplyLimits(extracted, webtk.ExtractLimits{}))
	})
}

func TestApplyLimitsMaxTokens(t *testing.T) {
	t.Parallel()

	t.Run("docs content truncates section-wise", func(t *testing.T) {
		t.Parallel()
		extracted := &webtk.ExtractedContent{
			Markdown: strings.Repeat("body text ", 200),
			Sections: []webtk.DocSection{
				{HeadingLevel: 2, HeadingText: "One", BodyMarkdown: strings.Repeat("a ", 100)},
				{HeadingLevel: 2, HeadingText: "Two", BodyMarkdown: strings.Repeat("b ", 100)},
				{HeadingLevel: 2, HeadingText: "Three", BodyMarkdown: strings.Repeat("c ", 100)},
			},
		}
		warnings := webtk.ApplyLimits(extracted, webtk.ExtractLimits{MaxTokens: 60})

		require.NotEmpty(t, warnings)
		assert.Contains(t, warnings[0], "truncated: tokens=")
		assert.Less(t, len(extracted.Sections), 3)
		assert.Equal(t, "One", extracted.Sections[0].HeadingText)
		assert.Contains(t, extracted.Markdown, "## One")
	})

	t.Run("prose truncates paragraph-wise", func(t *testing.T) {
		t.Parallel()
		paragraphs := []string{
			strings.Repeat("first ", 30),
			strings.Repeat("second ", 30),
			strings.Repeat("third ", 30),
		}
		extracted := &webtk.ExtractedContent{Markdown: strings.Join(paragraphs, "\n\n")}
		warnings := webtk.ApplyLimits(extracted, webtk.ExtractLimits{MaxTokens: 50})

		require.NotEmpty(t, warnings)
		assert.Contains(t, extracted.Markdown, "first")
		assert.NotContains(t, extracted.Markdown, "third")
	})
}

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, webtk.EstimateTokens(""))
	assert.Equal(t, 1, webtk.EstimateTokens("abc"))
	assert.Equal(t, 25, webtk.EstimateTokens(strings.Repeat("x", 100)))
}
