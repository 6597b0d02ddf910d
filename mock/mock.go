// Package mock provides hand-written function-field mocks for the root
// contracts, used by package tests.
package mock

import (
	"context"

	"github.com/tmustier/webtk"
)

var _ webtk.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of webtk.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, opts webtk.FetchOptions) (*webtk.FetchResult, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string, opts webtk.FetchOptions) (*webtk.FetchResult, error) {
	return f.FetchFn(ctx, url, opts)
}

var _ webtk.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of webtk.Renderer.
type Renderer struct {
	RenderFn func(ctx context.Context, url string, opts webtk.RenderOptions) (*webtk.Document, string, error)
	CloseFn  func() error
}

func (r *Renderer) Render(ctx context.Context, url string, opts webtk.RenderOptions) (*webtk.Document, string, error) {
	return r.RenderFn(ctx, url, opts)
}

func (r *Renderer) Close() error {
	if r.CloseFn == nil {
		return nil
	}
	return r.CloseFn()
}

var _ webtk.SearchProvider = (*SearchProvider)(nil)

// SearchProvider is a mock implementation of webtk.SearchProvider.
type SearchProvider struct {
	IDFn      func() string
	EnabledFn func() (bool, string)
	SearchFn  func(ctx context.Context, query webtk.SearchQuery) ([]webtk.SearchResult, error)
}

func (p *SearchProvider) ID() string {
	if p.IDFn == nil {
		return "mock"
	}
	return p.IDFn()
}

func (p *SearchProvider) Enabled() (bool, string) {
	if p.EnabledFn == nil {
		return true, ""
	}
	return p.EnabledFn()
}

func (p *SearchProvider) Search(ctx context.Context, query webtk.SearchQuery) ([]webtk.SearchResult, error) {
	return p.SearchFn(ctx, query)
}

var _ webtk.ProviderRegistry = (*ProviderRegistry)(nil)

// ProviderRegistry is a mock implementation of webtk.ProviderRegistry.
type ProviderRegistry struct {
	ListFn     func() []webtk.ProviderInfo
	SelectFn   func(id string) (webtk.SearchProvider, error)
	WarningsFn func(id string) []string
}

func (r *ProviderRegistry) List() []webtk.ProviderInfo {
	if r.ListFn == nil {
		return nil
	}
	return r.ListFn()
}

func (r *ProviderRegistry) Select(id string) (webtk.SearchProvider, error) {
	return r.SelectFn(id)
}

func (r *ProviderRegistry) Warnings(id string) []string {
	if r.WarningsFn == nil {
		return nil
	}
	return r.WarningsFn(id)
}

var _ webtk.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of webtk.Extractor.
type Extractor struct {
	ExtractFn func(html, baseURL string) (*webtk.ExtractedContent, error)
	NameFn    func() string
}

func (e *Extractor) Extract(html, baseURL string) (*webtk.ExtractedContent, error) {
	return e.ExtractFn(html, baseURL)
}

func (e *Extractor) Name() string {
	if e.NameFn == nil {
		return "mock"
	}
	return e.NameFn()
}

var _ webtk.StrategyDetector = (*StrategyDetector)(nil)

// StrategyDetector is a mock implementation of webtk.StrategyDetector.
type StrategyDetector struct {
	DetectFn func(html, url string) string
}

func (d *StrategyDetector) Detect(html, url string) string {
	if d.DetectFn == nil {
		return webtk.StrategyReadability
	}
	return d.DetectFn(html, url)
}

var _ webtk.RobotsChecker = (*RobotsChecker)(nil)

// RobotsChecker is a mock implementation of webtk.RobotsChecker.
type RobotsChecker struct {
	CheckFn func(ctx context.Context, url, userAgent string) (webtk.RobotsDecision, error)
}

func (c *RobotsChecker) Check(ctx context.Context, url, userAgent string) (webtk.RobotsDecision, error) {
	if c.CheckFn == nil {
		return webtk.RobotsDecision{Allowed: true}, nil
	}
	return c.CheckFn(ctx, url, userAgent)
}

var _ webtk.Cache = (*Cache)(nil)

// Cache is a mock implementation of webtk.Cache.
type Cache struct {
	LookupFn         func(fingerprint string) (*webtk.CacheEntry, error)
	StoreFn          func(fingerprint string, body []byte, meta webtk.CacheMetadata) (string, error)
	StoreEphemeralFn func(fingerprint string, body []byte) (string, error)
	PruneFn          func() (int64, error)
}

func (c *Cache) Lookup(fingerprint string) (*webtk.CacheEntry, error) {
	if c.LookupFn == nil {
		return nil, nil
	}
	return c.LookupFn(fingerprint)
}

func (c *Cache) Store(fingerprint string, body []byte, meta webtk.CacheMetadata) (string, error) {
	if c.StoreFn == nil {
		return "", nil
	}
	return c.StoreFn(fingerprint, body, meta)
}

func (c *Cache) StoreEphemeral(fingerprint string, body []byte) (string, error) {
	if c.StoreEphemeralFn == nil {
		return "", nil
	}
	return c.StoreEphemeralFn(fingerprint, body)
}

func (c *Cache) Prune() (int64, error) {
	if c.PruneFn == nil {
		return 0, nil
	}
	return c.PruneFn()
}

var _ webtk.EvalHistory = (*EvalHistory)(nil)

// EvalHistory is a mock implementation of webtk.EvalHistory.
type EvalHistory struct {
	RecordRunFn     func(ctx context.Context, run *webtk.EvalRun) error
	LastRunHashesFn func(ctx context.Context, suitePath, provider string) (map[string]string, error)
}

func (h *EvalHistory) RecordRun(ctx context.Context, run *webtk.EvalRun) error {
	if h.RecordRunFn == nil {
		return nil
	}
	return h.RecordRunFn(ctx, run)
}

func (h *EvalHistory) LastRunHashes(ctx context.Context, suitePath, provider string) (map[string]string, error) {
	if h.LastRunHashesFn == nil {
		return map[string]string{}, nil
	}
	return h.LastRunHashesFn(ctx, suitePath, provider)
}

var _ webtk.Converter = (*Converter)(nil)

// Converter is a mock implementation of webtk.Converter.
type Converter struct {
	ConvertFn func(html, baseURL string) (string, error)
}

func (c *Converter) Convert(html, baseURL string) (string, error) {
	return c.ConvertFn(html, baseURL)
}
