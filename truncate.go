package webtk

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EstimateTokens approximates the token count of text as chars/4, the
// usual whitespace-and-punctuation heuristic for English prose.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ApplyLimits truncates extracted content in place according to the
// limits, returning the warnings to surface. MaxChars applies first, at a
// UTF-8 boundary; MaxTokens then truncates section-wise when sections are
// present and paragraph-wise otherwise.
func ApplyLimits(extracted *ExtractedContent, limits ExtractLimits) []string {
	if extracted == nil {
		return nil
	}
	var warnings []string

	if limits.MaxChars > 0 && len(extracted.Markdown) > limits.MaxChars {
		original := len(extracted.Markdown)
		extracted.Markdown = truncateUTF8(extracted.Markdown, limits.MaxChars)
		warnings = AppendWarning(warnings, fmt.Sprintf("truncated: chars=%d of %d", len(extracted.Markdown), original))
	}
	if limits.MaxChars > 0 && len(extracted.Text) > limits.MaxChars {
		extracted.Text = truncateUTF8(extracted.Text, limits.MaxChars)
	}

	if limits.MaxTokens > 0 {
		if tokens := EstimateTokens(extracted.Markdown); tokens > limits.MaxTokens {
			if len(extracted.Sections) > 0 {
				truncateSections(extracted, limits.MaxTokens)
			} else {
				extracted.Markdown = truncateParagraphs(extracted.Markdown, limits.MaxTokens)
			}
			warnings = AppendWarning(warnings, fmt.Sprintf("truncated: tokens=%d of %d", EstimateTokens(extracted.Markdown), tokens))
		}
	}

	return warnings
}

// truncateUTF8 cuts s at limit bytes, backing up to a rune boundary, and
// appends an ellipsis marker.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// truncateSections keeps whole sections while they fit the token budget
// and rebuilds the markdown from what remains.
func truncateSections(extracted *ExtractedContent, maxTokens int) {
	var kept []DocSection
	remaining := maxTokens
	for _, section := range extracted.Sections {
		cost := EstimateTokens(section.HeadingText) + EstimateTokens(section.BodyMarkdown)
		if cost > remaining && len(kept) > 0 {
			break
		}
		kept = append(kept, section)
		remaining -= cost
		if remaining <= 0 {
			break
		}
	}
	extracted.Sections = kept

	var b strings.Builder
	for i, section := range kept {
		if section.HeadingText != "" {
			b.WriteString(strings.Repeat("#", max(section.HeadingLevel, 1)))
			b.WriteByte(' ')
			b.WriteString(section.HeadingText)
			b.WriteString("\n\n")
		}
		b.WriteString(section.BodyMarkdown)
		if i < len(kept)-1 {
			b.WriteString("\n\n")
		}
	}
	extracted.Markdown = strings.TrimSpace(b.String())
}

// truncateParagraphs keeps whole paragraphs while they fit the budget.
func truncateParagraphs(markdown string, maxTokens int) string {
	paragraphs := strings.Split(markdown, "\n\n")
	var kept []string
	remaining := maxTokens
	for _, p := range paragraphs {
		cost := EstimateTokens(p)
		if cost > remaining && len(kept) > 0 {
			break
		}
		kept = append(kept, p)
		remaining -= cost
		if remaining <= 0 {
			break
		}
	}
	return strings.Join(kept, "\n\n")
}
