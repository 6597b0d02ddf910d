package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/tmustier/webtk"
)

// Ensure FirecrawlProvider implements webtk.SearchProvider at compile time.
var _ webtk.SearchProvider = (*FirecrawlProvider)(nil)

// FirecrawlProvider queries a Firecrawl search endpoint. It is an endpoint
// integration speaking the same search contract as the other providers,
// configured via FIRECRAWL_BASE_URL and optionally FIRECRAWL_API_KEY.
type FirecrawlProvider struct {
	client  *http.Client
	baseURL func() string
	apiKey  func() string
}

// NewFirecrawlProvider creates a Firecrawl endpoint provider.
func NewFirecrawlProvider(cfg Config) *FirecrawlProvider {
	return &FirecrawlProvider{
		client:  cfg.client(),
		baseURL: func() string { return os.Getenv("FIRECRAWL_BASE_URL") },
		apiKey:  func() string { return os.Getenv("FIRECRAWL_API_KEY") },
	}
}

// ID returns the provider identifier.
func (p *FirecrawlProvider) ID() string { return "firecrawl_endpoint" }

// Enabled reports whether FIRECRAWL_BASE_URL is configured.
func (p *FirecrawlProvider) Enabled() (bool, string) {
	if p.baseURL() == "" {
		return false, "missing FIRECRAWL_BASE_URL"
	}
	return true, ""
}

// Local reports whether the configured endpoint is a loopback address.
// Under the standard policy, a non-local endpoint participates in auto
// selection only when FIRECRAWL_ALLOW_AUTO is set.
func (p *FirecrawlProvider) Local() bool {
	u, err := url.Parse(p.baseURL())
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

type firecrawlResponse struct {
	Data []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"data"`
}

// Search runs the query against the Firecrawl search endpoint.
func (p *FirecrawlProvider) Search(ctx context.Context, query webtk.SearchQuery) ([]webtk.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	base := p.baseURL()
	if base == "" {
		return nil, webtk.Errorf(webtk.EPROVIDER, "firecrawl_endpoint disabled: missing FIRECRAWL_BASE_URL")
	}

	payload := map[string]any{
		"query": query.Query,
		"limit": query.MaxResults,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, webtk.Errorf(webtk.EINTERNAL, "encoding firecrawl request: %v", err)
	}

	endpoint := strings.TrimSuffix(base, "/") + "/v1/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, webtk.Errorf(webtk.EINTERNAL, "building firecrawl request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := p.apiKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, webtk.Errorf(webtk.EPROVIDER, "firecrawl_endpoint request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, webtk.Errorf(webtk.EPROVIDER, "firecrawl_endpoint returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, webtk.Errorf(webtk.EPROVIDER, "reading firecrawl response: %v", err)
	}

	var parsed firecrawlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, webtk.Errorf(webtk.EPARSE, "decoding firecrawl response: %v", err)
	}

	results := make([]webtk.SearchResult, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		if item.Title == "" || item.URL == "" {
			continue
		}
		results = append(results, webtk.SearchResult{
			Title:          item.Title,
			URL:            item.URL,
			Snippet:        item.Description,
			SourceProvider: p.ID(),
			ResultID:       ResultID(p.ID(), item.URL, item.Title),
		})
		if len(results) >= query.MaxResults {
			break
		}
	}
	return results, nil
}
