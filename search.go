package webtk

import "context"

// SearchResult is a single hit from a search provider. ResultID is a
// stable hash of provider, URL, and title.
type SearchResult struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Snippet        string   `json:"snippet,omitempty"`
	PublishedAt    string   `json:"published_at,omitempty"`
	SourceProvider string   `json:"source_provider"`
	Score          *float64 `json:"score,omitempty"`
	ResultID       string   `json:"result_id"`
}

// SearchQuery carries the provider-independent search parameters.
type SearchQuery struct {
	Query      string
	MaxResults int

	// Region is a provider-style region code like "us-en" or "wt-wt".
	Region string

	// SafeSearch is one of "on", "moderate", "off", or "".
	SafeSearch string

	// TimeRange is a provider-specific recency hint ("d", "w", "m", "y").
	TimeRange string
}

// Validate returns an error if the query is unusable.
func (q SearchQuery) Validate() error {
	if q.Query == "" {
		return Errorf(EINVALID, "search query required")
	}
	if q.MaxResults <= 0 {
		return Errorf(EINVALID, "max results must be >= 1, got %d", q.MaxResults)
	}
	return nil
}

// SearchProvider is the capability contract every search backend satisfies.
type SearchProvider interface {
	// ID returns the stable provider identifier (e.g. "brave_api").
	ID() string

	// Enabled reports whether the provider can run in the current
	// environment, with a reason when it cannot.
	Enabled() (bool, string)

	// Search runs the query and returns up to MaxResults results.
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)
}

// ProviderInfo is the registry metadata for one provider.
type ProviderInfo struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Enabled        bool     `json:"enabled"`
	DisabledReason string   `json:"disabled_reason,omitempty"`
	RequiredEnv    []string `json:"required_env,omitempty"`
	PrivacyWarning string   `json:"privacy_warning,omitempty"`
}

// ProviderRegistry enumerates search providers in a static, documented
// order and selects one by id or by first-enabled-match for "auto".
type ProviderRegistry interface {
	// List returns metadata for all registered providers in order.
	List() []ProviderInfo

	// Select resolves a provider id, or the first enabled provider when
	// id is "auto". Returns EINVALID for unknown ids and EPROVIDER when
	// no provider is available.
	Select(id string) (SearchProvider, error)

	// Warnings returns the privacy warnings to surface when the provider
	// is actually used.
	Warnings(id string) []string
}
