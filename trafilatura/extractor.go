// Package trafilatura provides the readability extraction strategy. It
// selects the dominant article node by content scoring, strips boilerplate,
// and emits Markdown preserving headings, lists, emphasis, and code.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"github.com/tmustier/webtk"
	"golang.org/x/net/html"
)

// Ensure Extractor implements webtk.Extractor at compile time.
var _ webtk.Extractor = (*Extractor)(nil)

// ExtractionMethod identifies readability output in Document provenance.
const ExtractionMethod = "readability_trafilatura"

// Extractor wraps go-trafilatura.
type Extractor struct {
	converter webtk.Converter
}

// NewExtractor creates a readability Extractor. The converter turns the
// selected article HTML into Markdown.
func NewExtractor(converter webtk.Converter) *Extractor {
	return &Extractor{converter: converter}
}

// Name returns the strategy identifier.
func (e *Extractor) Name() string {
	return webtk.StrategyReadability
}

// Extract processes raw HTML and returns the dominant article content.
func (e *Extractor) Extract(rawHTML, baseURL string) (*webtk.ExtractedContent, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, webtk.Errorf(webtk.EEXTRACT, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil {
			opts.OriginalURL = u
		}
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, webtk.Errorf(webtk.EEXTRACT, "readability extraction: %v", err)
	}

	var markdown string
	if result.ContentNode != nil {
		contentHTML, err := renderNode(result.ContentNode)
		if err != nil {
			return nil, webtk.Errorf(webtk.EEXTRACT, "rendering content node: %v", err)
		}
		markdown, err = e.converter.Convert(contentHTML, baseURL)
		if err != nil {
			return nil, err
		}
	}

	title := result.Metadata.Title
	if title == "" {
		title = titleFromDOM(rawHTML)
	}

	return &webtk.ExtractedContent{
		Title:             title,
		Markdown:          markdown,
		Text:              strings.TrimSpace(result.ContentText),
		ContentHash:       webtk.ContentHash(markdown),
		ExtractionMethod:  ExtractionMethod,
		ExtractionVersion: webtk.ExtractionVersion,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// titleFromDOM falls back to <title>, og:title, or the first h1.
func titleFromDOM(rawHTML string) string {
	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var title, ogTitle, h1 string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var prop, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property", "name":
						prop = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if prop == "og:title" && ogTitle == "" {
					ogTitle = strings.TrimSpace(content)
				}
			case "h1":
				if h1 == "" {
					h1 = strings.TrimSpace(textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	if title != "" {
		return title
	}
	if ogTitle != "" {
		return ogTitle
	}
	return h1
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
