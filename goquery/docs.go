package goquery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmustier/webtk"
)

// Ensure DocsExtractor implements webtk.Extractor at compile time.
var _ webtk.Extractor = (*DocsExtractor)(nil)

// ExtractionMethod identifies docs-strategy output in Document provenance.
const ExtractionMethod = "docs_goquery"

// Sidebar and navigation regions are pruned when their link density
// exceeds this ratio of anchor text to total text.
const sidebarLinkDensity = 0.6

// Tables wider than this collapse to a placeholder instead of GFM.
const maxTableColumns = 8

var chromeClassRe = regexp.MustCompile(`(?i)\b(sidebar|toc|breadcrumb|menu|navigation)\b`)

// DocsExtractor preserves the full heading tree of documentation pages as
// an ordered flat section list with per-section outbound links.
type DocsExtractor struct {
	converter webtk.Converter
}

// NewDocsExtractor creates a docs-strategy Extractor.
func NewDocsExtractor(converter webtk.Converter) *DocsExtractor {
	return &DocsExtractor{converter: converter}
}

// Name returns the strategy identifier.
func (e *DocsExtractor) Name() string {
	return webtk.StrategyDocs
}

// Extract processes raw HTML into sectioned markdown.
func (e *DocsExtractor) Extract(rawHTML, baseURL string) (*webtk.ExtractedContent, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, webtk.Errorf(webtk.EEXTRACT, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, webtk.Errorf(webtk.EPARSE, "parsing HTML: %v", err)
	}

	title := pageTitle(doc)

	doc.Find("script, style, noscript, form").Remove()
	root := mainRegion(doc)
	pruneChrome(root)
	collapseWideTables(root)

	rootHTML, err := goquery.OuterHtml(root)
	if err != nil {
		return nil, webtk.Errorf(webtk.EEXTRACT, "serializing content: %v", err)
	}

	markdown, err := e.converter.Convert(rootHTML, baseURL)
	if err != nil {
		return nil, err
	}

	sections := splitSections(markdown, baseURL)

	return &webtk.ExtractedContent{
		Title:             title,
		Markdown:          markdown,
		Text:              strings.TrimSpace(root.Text()),
		ContentHash:       webtk.ContentHash(markdown),
		ExtractionMethod:  ExtractionMethod,
		ExtractionVersion: webtk.ExtractionVersion,
		Sections:          sections,
	}, nil
}

func pageTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// pruneChrome removes navigation chrome: nav and aside elements, plus any
// region whose class names look navigational and whose link density
// exceeds the threshold.
func pruneChrome(root *goquery.Selection) {
	root.Find("nav, aside, footer, header").Remove()
	root.Find("div, section, ul").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if !chromeClassRe.MatchString(class + " " + id) {
			return
		}
		if linkDensity(s) > sidebarLinkDensity {
			s.Remove()
		}
	})
}

// linkDensity is the ratio of anchor text to total text in the selection.
func linkDensity(s *goquery.Selection) float64 {
	total := len(strings.TrimSpace(s.Text()))
	if total == 0 {
		return 1.0
	}
	var anchor int
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		anchor += len(strings.TrimSpace(a.Text()))
	})
	return float64(anchor) / float64(total)
}

// collapseWideTables replaces tables wider than maxTableColumns with a
// placeholder noting the omitted dimensions.
func collapseWideTables(root *goquery.Selection) {
	root.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr").Length()
		cols := 0
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if n := tr.Find("td, th").Length(); n > cols {
				cols = n
			}
		})
		if cols > maxTableColumns {
			placeholder := fmt.Sprintf("[table omitted: %d rows × %d cols]", rows, cols)
			table.ReplaceWithHtml("<p>" + placeholder + "</p>")
		}
	})
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

var markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)[^)]*\)`)

// splitSections walks the markdown line-wise and cuts a new section at
// every heading outside a code fence. Each section runs until the next
// heading of any level; the flat list preserves document order. Content
// before the first heading becomes a level-0 preamble section.
func splitSections(markdown, baseURL string) []webtk.DocSection {
	var sections []webtk.DocSection
	var current *webtk.DocSection
	var body []string
	inFence := false

	flush := func() {
		if current == nil && len(body) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(body, "\n"))
		section := webtk.DocSection{BodyMarkdown: text}
		if current != nil {
			section.HeadingLevel = current.HeadingLevel
			section.HeadingText = current.HeadingText
		}
		if section.HeadingText == "" && section.BodyMarkdown == "" {
			body = body[:0]
			current = nil
			return
		}
		section.Links = sectionLinks(text, baseURL)
		sections = append(sections, section)
		body = body[:0]
		current = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			body = append(body, line)
			continue
		}
		if !inFence {
			if m := headingRe.FindStringSubmatch(trimmed); m != nil {
				flush()
				current = &webtk.DocSection{
					HeadingLevel: len(m[1]),
					HeadingText:  strings.TrimSpace(m[2]),
				}
				continue
			}
		}
		body = append(body, line)
	}
	flush()
	return sections
}

// sectionLinks collects the outbound links of a section body, resolved
// absolute against the base URL, deduplicated in order of appearance.
func sectionLinks(body, baseURL string) []string {
	matches := markdownLinkRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	base, _ := url.Parse(baseURL)
	seen := make(map[string]bool)
	var links []string
	for _, m := range matches {
		raw := m[1]
		if strings.HasPrefix(raw, "#") {
			continue
		}
		resolved := raw
		if base != nil {
			if ref, err := url.Parse(raw); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		if !strings.HasPrefix(resolved, "http://") && !strings.HasPrefix(resolved, "https://") {
			continue
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		links = append(links, resolved)
	}
	return links
}
