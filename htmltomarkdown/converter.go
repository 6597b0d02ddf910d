// Package htmltomarkdown converts clean HTML into Markdown for both
// extraction strategies. Tables render in GFM form via the table plugin.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/tmustier/webtk"
)

// Ensure Converter implements webtk.Converter at compile time.
var _ webtk.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a Converter with commonmark and GFM table support.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown. Relative links are
// resolved against baseURL when it is non-empty.
func (c *Converter) Convert(html, baseURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", webtk.Errorf(webtk.EEXTRACT, "empty HTML input")
	}

	var opts []converter.ConvertOptionFunc
	if baseURL != "" {
		opts = append(opts, converter.WithDomain(baseURL))
	}

	result, err := c.conv.ConvertString(html, opts...)
	if err != nil {
		return "", webtk.Errorf(webtk.EEXTRACT, "markdown conversion: %v", err)
	}

	return strings.TrimSpace(result), nil
}
