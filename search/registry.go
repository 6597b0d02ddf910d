// Package search provides the search provider registry and the built-in
// providers: brave_api, searxng_local, firecrawl_endpoint, and ddgs.
// Providers are enumerated in a static, documented order; "auto" selects
// the first enabled provider.
package search

import (
	"encoding/hex"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/tmustier/webtk"
)

// Ensure Registry implements webtk.ProviderRegistry at compile time.
var _ webtk.ProviderRegistry = (*Registry)(nil)

// DefaultTimeout is the default provider request timeout.
const DefaultTimeout = 15 * time.Second

// Config carries the transport settings shared by all providers.
type Config struct {
	Timeout   time.Duration
	Proxy     string
	Transport http.RoundTripper

	// PermissiveMode relaxes the auto-selection gate on remote
	// firecrawl endpoints.
	PermissiveMode bool
}

func (c Config) client() *http.Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := c.Transport
	if transport == nil && c.Proxy != "" {
		if proxyURL, err := url.Parse(c.Proxy); err == nil {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

type providerMeta struct {
	provider       webtk.SearchProvider
	typ            string
	requiredEnv    []string
	privacyWarning string

	// autoEligible gates participation in auto selection beyond the
	// provider being enabled.
	autoEligible func() bool
}

// Registry owns the static ordered provider list. The auto order is
// brave_api > searxng_local > firecrawl_endpoint > ddgs; a remote
// firecrawl endpoint only participates in auto under permissive mode or
// an explicit FIRECRAWL_ALLOW_AUTO opt-in.
type Registry struct {
	providers []providerMeta
}

// NewRegistry creates the registry with the built-in providers.
func NewRegistry(cfg Config) *Registry {
	firecrawl := NewFirecrawlProvider(cfg)
	return &Registry{
		providers: []providerMeta{
			{
				provider:       NewBraveProvider(cfg),
				typ:            "api",
				requiredEnv:    []string{"BRAVE_API_KEY"},
				privacyWarning: "brave_api sends queries to the Brave Search API.",
			},
			{
				provider: NewSearxngProvider(cfg),
				typ:      "local",
			},
			{
				provider:       firecrawl,
				typ:            "endpoint",
				requiredEnv:    []string{"FIRECRAWL_BASE_URL"},
				privacyWarning: "firecrawl_endpoint sends queries to the configured Firecrawl service.",
				autoEligible: func() bool {
					return firecrawl.Local() || cfg.PermissiveMode || os.Getenv("FIRECRAWL_ALLOW_AUTO") != ""
				},
			},
			{
				provider:       NewDDGSProvider(cfg),
				typ:            "scrape",
				privacyWarning: "ddgs uses DuckDuckGo public endpoints; queries are sent to third-party services.",
			},
		},
	}
}

// List returns metadata for all registered providers in order.
func (r *Registry) List() []webtk.ProviderInfo {
	infos := make([]webtk.ProviderInfo, 0, len(r.providers))
	for _, meta := range r.providers {
		enabled, reason := meta.provider.Enabled()
		infos = append(infos, webtk.ProviderInfo{
			ID:             meta.provider.ID(),
			Type:           meta.typ,
			Enabled:        enabled,
			DisabledReason: reason,
			RequiredEnv:    meta.requiredEnv,
			PrivacyWarning: meta.privacyWarning,
		})
	}
	return infos
}

// Select resolves a provider by id, or the first enabled auto-eligible
// provider when id is "auto".
func (r *Registry) Select(id string) (webtk.SearchProvider, error) {
	if id == "auto" || id == "" {
		for _, meta := range r.providers {
			if enabled, _ := meta.provider.Enabled(); !enabled {
				continue
			}
			if meta.autoEligible != nil && !meta.autoEligible() {
				continue
			}
			return meta.provider, nil
		}
		return nil, webtk.Errorf(webtk.EPROVIDER, "no search provider available")
	}

	for _, meta := range r.providers {
		if meta.provider.ID() != id {
			continue
		}
		if enabled, reason := meta.provider.Enabled(); !enabled {
			return nil, webtk.Errorf(webtk.EINVALID, "provider %s disabled: %s", id, reason)
		}
		return meta.provider, nil
	}
	return nil, webtk.Errorf(webtk.EINVALID, "unknown provider %q", id)
}

// Warnings returns the privacy warnings to surface when a provider is used.
func (r *Registry) Warnings(id string) []string {
	for _, meta := range r.providers {
		if meta.provider.ID() == id && meta.privacyWarning != "" {
			return []string{meta.privacyWarning}
		}
	}
	return nil
}

// ResultID derives the stable result identifier from the provider, URL,
// and title.
func ResultID(provider, url, title string) string {
	h := xxhash.New()
	_, _ = h.WriteString(provider)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(url)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(title)
	return hex.EncodeToString(h.Sum(nil))
}

// parseRegion splits a region code like "us-en" into country and language.
// The wildcard parts of "wt-wt" map to empty strings.
func parseRegion(region string) (country, lang string) {
	parts := strings.SplitN(region, "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	country = strings.ToUpper(parts[0])
	lang = strings.ToLower(parts[1])
	if country == "WT" {
		country = ""
	}
	if lang == "wt" {
		lang = ""
	}
	return country, lang
}
