package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/tmustier/webtk"
)

// Ensure BraveProvider implements webtk.SearchProvider at compile time.
var _ webtk.SearchProvider = (*BraveProvider)(nil)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveProvider queries the Brave Search API. It requires BRAVE_API_KEY;
// the key is read from the environment only, never from flags.
type BraveProvider struct {
	client   *http.Client
	endpoint string
	apiKey   func() string
}

// NewBraveProvider creates a Brave API provider.
func NewBraveProvider(cfg Config) *BraveProvider {
	return &BraveProvider{
		client:   cfg.client(),
		endpoint: braveEndpoint,
		apiKey:   func() string { return os.Getenv("BRAVE_API_KEY") },
	}
}

// ID returns the provider identifier.
func (p *BraveProvider) ID() string { return "brave_api" }

// Enabled reports whether BRAVE_API_KEY is configured.
func (p *BraveProvider) Enabled() (bool, string) {
	if p.apiKey() == "" {
		return false, "missing BRAVE_API_KEY"
	}
	return true, ""
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PageAge     string `json:"page_age"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs the query against the Brave Search API.
func (p *BraveProvider) Search(ctx context.Context, query webtk.SearchQuery) ([]webtk.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if enabled, reason := p.Enabled(); !enabled {
		return nil, webtk.Errorf(webtk.EPROVIDER, "brave_api disabled: %s", reason)
	}

	params := url.Values{}
	params.Set("q", query.Query)
	params.Set("count", strconv.Itoa(query.MaxResults))
	if query.SafeSearch != "" {
		params.Set("safesearch", query.SafeSearch)
	}
	if query.Region != "" {
		country, lang := parseRegion(query.Region)
		if country != "" {
			params.Set("country", country)
		}
		if lang != "" {
			params.Set("search_lang", lang)
			params.Set("ui_lang", lang)
		}
	}
	if query.TimeRange != "" {
		if freshness := braveFreshness(query.TimeRange); freshness != "" {
			params.Set("freshness", freshness)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, webtk.Errorf(webtk.EINTERNAL, "building brave request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, webtk.Errorf(webtk.EPROVIDER, "brave_api request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, webtk.Errorf(webtk.EPROVIDER, "brave_api authentication failed (check BRAVE_API_KEY)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, webtk.Errorf(webtk.EPROVIDER, "brave_api returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, webtk.Errorf(webtk.EPROVIDER, "reading brave response: %v", err)
	}

	var payload braveResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, webtk.Errorf(webtk.EPARSE, "decoding brave response: %v", err)
	}

	results := make([]webtk.SearchResult, 0, len(payload.Web.Results))
	for _, item := range payload.Web.Results {
		if item.Title == "" || item.URL == "" {
			continue
		}
		results = append(results, webtk.SearchResult{
			Title:          item.Title,
			URL:            item.URL,
			Snippet:        item.Description,
			PublishedAt:    item.PageAge,
			SourceProvider: p.ID(),
			ResultID:       ResultID(p.ID(), item.URL, item.Title),
		})
		if len(results) >= query.MaxResults {
			break
		}
	}
	return results, nil
}

// braveFreshness maps the generic time range codes to Brave's values.
func braveFreshness(timeRange string) string {
	switch timeRange {
	case "d":
		return "pd"
	case "w":
		return "pw"
	case "m":
		return "pm"
	case "y":
		return "py"
	}
	return ""
}
