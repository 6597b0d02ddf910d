// Package goquery provides the docs extraction strategy and the strategy
// detector. It preserves the heading tree, code blocks, and outbound links
// of documentation pages, pruning navigation chrome by link density.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmustier/webtk"
)

// Ensure Detector implements webtk.StrategyDetector at compile time.
var _ webtk.StrategyDetector = (*Detector)(nil)

// docsPathSegments are URL path hints for documentation sites.
var docsPathSegments = map[string]bool{
	"docs":      true,
	"api":       true,
	"reference": true,
	"guide":     true,
	"manual":    true,
}

// Detector decides between the docs and readability strategies.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns StrategyDocs when the DOM shows strong docs-site signals:
// a nav element with many siblings, dense headings inside the main region,
// pre/code blocks, or a documentation path segment in the URL. Otherwise
// it returns StrategyReadability.
func (d *Detector) Detect(rawHTML, rawURL string) string {
	if pathLooksLikeDocs(rawURL) {
		return webtk.StrategyDocs
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return webtk.StrategyReadability
	}

	if doc.Find("pre code").Length() > 0 && doc.Find("h1, h2, h3, h4, h5, h6").Length() >= 2 {
		return webtk.StrategyDocs
	}

	main := mainRegion(doc)
	if headingDensity(main) >= 4.0 {
		return webtk.StrategyDocs
	}

	// A nav with several siblings is the sidebar-plus-content shape of
	// generated documentation.
	docsShaped := false
	doc.Find("nav").EachWithBreak(func(_ int, nav *goquery.Selection) bool {
		if nav.Siblings().Length() >= 3 {
			docsShaped = true
			return false
		}
		return true
	})
	if docsShaped && main.Find("h1, h2, h3, h4, h5, h6").Length() >= 2 {
		return webtk.StrategyDocs
	}

	return webtk.StrategyReadability
}

func pathLooksLikeDocs(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if docsPathSegments[strings.ToLower(segment)] {
			return true
		}
	}
	return false
}

// mainRegion returns the best candidate for the content root.
func mainRegion(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"main", "[role=main]", "article"} {
		if s := doc.Find(selector).First(); s.Length() > 0 {
			return s
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// headingDensity is headings per 2000 characters of text in the region.
// Very short regions report zero: a one-heading stub is not a docs signal.
func headingDensity(region *goquery.Selection) float64 {
	textLen := len(strings.TrimSpace(region.Text()))
	if textLen < 1000 {
		return 0
	}
	headings := region.Find("h1, h2, h3, h4, h5, h6").Length()
	return float64(headings) / (float64(textLen) / 2000.0)
}
