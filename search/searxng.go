package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/tmustier/webtk"
)

// Ensure SearxngProvider implements webtk.SearchProvider at compile time.
var _ webtk.SearchProvider = (*SearxngProvider)(nil)

// SearxngProvider queries a self-hosted SearXNG instance over its JSON
// API. The instance base URL comes from SEARXNG_BASE_URL.
type SearxngProvider struct {
	client  *http.Client
	baseURL func() string
}

// NewSearxngProvider creates a SearXNG provider.
func NewSearxngProvider(cfg Config) *SearxngProvider {
	return &SearxngProvider{
		client:  cfg.client(),
		baseURL: func() string { return os.Getenv("SEARXNG_BASE_URL") },
	}
}

// ID returns the provider identifier.
func (p *SearxngProvider) ID() string { return "searxng_local" }

// Enabled reports whether SEARXNG_BASE_URL is configured.
func (p *SearxngProvider) Enabled() (bool, string) {
	if p.baseURL() == "" {
		return false, "missing SEARXNG_BASE_URL"
	}
	return true, ""
}

type searxngResponse struct {
	Results []struct {
		Title         string   `json:"title"`
		URL           string   `json:"url"`
		Content       string   `json:"content"`
		PublishedDate string   `json:"publishedDate"`
		Score         *float64 `json:"score"`
	} `json:"results"`
}

// Search runs the query against the SearXNG JSON API.
func (p *SearxngProvider) Search(ctx context.Context, query webtk.SearchQuery) ([]webtk.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	base := p.baseURL()
	if base == "" {
		return nil, webtk.Errorf(webtk.EPROVIDER, "searxng_local disabled: missing SEARXNG_BASE_URL")
	}

	params := url.Values{}
	params.Set("q", query.Query)
	params.Set("format", "json")
	if query.SafeSearch != "" {
		params.Set("safesearch", searxngSafeSearch(query.SafeSearch))
	}
	if query.TimeRange != "" {
		params.Set("time_range", searxngTimeRange(query.TimeRange))
	}
	if query.Region != "" {
		if _, lang := parseRegion(query.Region); lang != "" {
			params.Set("language", lang)
		}
	}

	endpoint := strings.TrimSuffix(base, "/") + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, webtk.Errorf(webtk.EINTERNAL, "building searxng request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, webtk.Errorf(webtk.EPROVIDER, "searxng_local request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, webtk.Errorf(webtk.EPROVIDER, "searxng_local returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, webtk.Errorf(webtk.EPROVIDER, "reading searxng response: %v", err)
	}

	var payload searxngResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, webtk.Errorf(webtk.EPARSE, "decoding searxng response: %v", err)
	}

	results := make([]webtk.SearchResult, 0, len(payload.Results))
	for _, item := range payload.Results {
		if item.Title == "" || item.URL == "" {
			continue
		}
		results = append(results, webtk.SearchResult{
			Title:          item.Title,
			URL:            item.URL,
			Snippet:        item.Content,
			PublishedAt:    item.PublishedDate,
			SourceProvider: p.ID(),
			Score:          item.Score,
			ResultID:       ResultID(p.ID(), item.URL, item.Title),
		})
		if len(results) >= query.MaxResults {
			break
		}
	}
	return results, nil
}

func searxngSafeSearch(mode string) string {
	switch mode {
	case "on":
		return "2"
	case "moderate":
		return "1"
	default:
		return "0"
	}
}

func searxngTimeRange(timeRange string) string {
	switch timeRange {
	case "d":
		return "day"
	case "w":
		return "week"
	case "m":
		return "month"
	case "y":
		return "year"
	}
	return ""
}
