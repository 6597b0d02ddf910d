package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmustier/webtk"
)

// Ensure DDGSProvider implements webtk.SearchProvider at compile time.
var _ webtk.SearchProvider = (*DDGSProvider)(nil)

const ddgsEndpoint = "https://html.duckduckgo.com/html/"

// DDGSProvider scrapes the DuckDuckGo HTML endpoint. It needs no
// configuration and serves as the keyless baseline, at the cost of sending
// queries to a third-party service.
type DDGSProvider struct {
	client   *http.Client
	endpoint string
}

// NewDDGSProvider creates a DuckDuckGo provider.
func NewDDGSProvider(cfg Config) *DDGSProvider {
	return &DDGSProvider{client: cfg.client(), endpoint: ddgsEndpoint}
}

// ID returns the provider identifier.
func (p *DDGSProvider) ID() string { return "ddgs" }

// Enabled always reports true; the provider is keyless.
func (p *DDGSProvider) Enabled() (bool, string) {
	return true, ""
}

// Search scrapes the DuckDuckGo HTML results page.
func (p *DDGSProvider) Search(ctx context.Context, query webtk.SearchQuery) ([]webtk.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query.Query)
	if query.Region != "" {
		params.Set("kl", query.Region)
	}
	if query.TimeRange != "" {
		params.Set("df", query.TimeRange)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, webtk.Errorf(webtk.EINTERNAL, "building ddgs request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, webtk.Errorf(webtk.EPROVIDER, "ddgs request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, webtk.Errorf(webtk.EPROVIDER, "ddgs returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, webtk.Errorf(webtk.EPARSE, "parsing ddgs response: %v", err)
	}

	var results []webtk.SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		anchor := s.Find("a.result__a").First()
		href, ok := anchor.Attr("href")
		title := strings.TrimSpace(anchor.Text())
		if !ok || title == "" {
			return true
		}
		resolved := resolveDDGRedirect(href)
		if resolved == "" {
			return true
		}
		results = append(results, webtk.SearchResult{
			Title:          title,
			URL:            resolved,
			Snippet:        strings.TrimSpace(s.Find(".result__snippet").Text()),
			SourceProvider: p.ID(),
			ResultID:       ResultID(p.ID(), resolved, title),
		})
		return len(results) < query.MaxResults
	})

	return results, nil
}

// resolveDDGRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveDDGRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
		return target
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}
