// Package http provides the HTTP-based fetch engine. It performs polite
// single-request transport with bounded redirects, size-capped body
// streaming, block/JS-only heuristics, and content-type sniffing, and
// encodes every expected network condition in the result classification
// instead of returning errors.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tmustier/webtk"
)

// Ensure Fetcher implements webtk.Fetcher at compile time.
var _ webtk.Fetcher = (*Fetcher)(nil)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 15 * time.Second

// MaxRedirects bounds the redirect chain.
const MaxRedirects = 10

// DefaultMaxBytes caps the response body when the caller sets no limit.
const DefaultMaxBytes = 5 << 20

// restrictedHeaders are rejected with a usage error; credentials never
// travel through the fetch engine.
var restrictedHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
}

// DefaultHeaders returns the browser-like header trio sent when the caller
// does not override them. These headers participate in the cache
// fingerprint because they alter content negotiation.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"accept":          "text/html,*/*",
		"accept-language": "en-US,en;q=0.9",
		"user-agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Fetcher retrieves URLs over HTTP and classifies the outcome. It does not
// execute JavaScript; pages that need it classify as needs_render.
type Fetcher struct {
	cache     webtk.Cache
	transport http.RoundTripper
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTransport overrides the HTTP transport. Tests use this to stub the
// network.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// NewFetcher creates a fetch engine backed by the given response cache.
func NewFetcher(cache webtk.Cache, opts ...Option) *Fetcher {
	f := &Fetcher{cache: cache}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the URL. Expected network conditions (blocks, timeouts,
// missing pages) are encoded in the classification; only programmer errors
// propagate as errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts webtk.FetchOptions) (*webtk.FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, webtk.Errorf(webtk.EINVALID, "invalid URL %q (http/https only)", rawURL)
	}

	headers := DefaultHeaders()
	for k, v := range opts.Headers {
		key := strings.ToLower(strings.TrimSpace(k))
		if restrictedHeaders[key] {
			return nil, webtk.Errorf(webtk.EINVALID, "refusing to set restricted header %q", k)
		}
		headers[key] = strings.TrimSpace(v)
	}

	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}

	fingerprint := webtk.Fingerprint(http.MethodGet, rawURL, headers)

	if f.cache != nil && !opts.Fresh && !opts.NoStore {
		if entry, err := f.cache.Lookup(fingerprint); err == nil && entry != nil {
			return f.resultFromCache(rawURL, entry, opts)
		}
	}

	result, body := f.transportFetch(ctx, rawURL, headers, opts)
	if result.Classification == webtk.ClassTimeout || result.Classification == webtk.ClassTransportError {
		return result, nil
	}

	result.Body = body
	classify(result, body, opts.DetectBlocks)

	// Server errors are a retryable signal; persisting them would pin the
	// failure into replays.
	if result.Classification != webtk.ClassTransportError {
		f.persistBody(fingerprint, result, body, opts)
	}
	return result, nil
}

// transportFetch issues the request and assembles the base document. The
// returned classification is ok unless transport itself failed.
func (f *Fetcher) transportFetch(ctx context.Context, rawURL string, headers map[string]string, opts webtk.FetchOptions) (*webtk.FetchResult, []byte) {
	var redirectChain []string

	transport := f.transport
	if transport == nil && opts.Proxy != "" {
		if proxyURL, err := url.Parse(opts.Proxy); err == nil {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !opts.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", MaxRedirects)
			}
			redirectChain = append(redirectChain, req.URL.String())
			return nil
		},
	}

	doc := webtk.NewDocument(rawURL, webtk.FetchMethodHTTP)
	result := &webtk.FetchResult{Document: doc, Classification: webtk.ClassOK}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		result.Classification = webtk.ClassTransportError
		result.Reason = err.Error()
		result.NextSteps = transportNextSteps()
		return result, nil
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			result.Classification = webtk.ClassTimeout
			result.Reason = "request timed out"
			result.NextSteps = []string{"retry with a higher --timeout"}
		} else {
			result.Classification = webtk.ClassTransportError
			result.Reason = err.Error()
			result.NextSteps = transportNextSteps()
		}
		return result, nil
	}
	defer resp.Body.Close()

	// Stream at most MaxBytes+1 so truncation is detectable without
	// buffering the full response.
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes+1))
	truncated := false
	if int64(len(body)) > opts.MaxBytes {
		body = body[:opts.MaxBytes]
		truncated = true
	}
	if readErr != nil && len(body) == 0 {
		result.Classification = webtk.ClassTransportError
		result.Reason = readErr.Error()
		result.NextSteps = transportNextSteps()
		return result, nil
	}

	doc.HTTP = &webtk.HTTPInfo{
		Status:        resp.StatusCode,
		FinalURL:      resp.Request.URL.String(),
		RedirectChain: redirectChain,
		Headers:       selectHeaders(resp.Header),
		BytesRead:     int64(len(body)),
		Truncated:     truncated,
	}
	doc.Artifact = &webtk.ArtifactInfo{
		ContentType: SniffContentType(resp.Header.Get("Content-Type"), body),
		BodyBytes:   int64(len(body)),
	}
	if truncated {
		doc.AddWarning(fmt.Sprintf("body truncated at %d bytes", opts.MaxBytes))
	}
	return result, body
}

// persistBody stores the body according to the cache options and records
// the body path on the document. Store failures degrade to a warning; the
// in-memory body remains usable.
func (f *Fetcher) persistBody(fingerprint string, result *webtk.FetchResult, body []byte, opts webtk.FetchOptions) {
	if f.cache == nil || result.Document.HTTP == nil {
		return
	}
	doc := result.Document

	if opts.NoStore {
		if path, err := f.cache.StoreEphemeral(fingerprint, body); err == nil {
			doc.Artifact.BodyPath = path
		}
		return
	}

	meta := webtk.CacheMetadata{
		Status:      doc.HTTP.Status,
		FinalURL:    doc.HTTP.FinalURL,
		Headers:     doc.HTTP.Headers,
		ContentType: doc.Artifact.ContentType,
		Truncated:   doc.HTTP.Truncated,
	}
	path, err := f.cache.Store(fingerprint, body, meta)
	if err != nil {
		doc.AddWarning("cache store failed: " + webtk.ErrorMessage(err))
		return
	}
	doc.Artifact.BodyPath = path
	result.CacheStored = true
	_, _ = f.cache.Prune()
}

// resultFromCache reconstructs a FetchResult from a cache entry and
// re-runs classification so cached bot walls still classify.
func (f *Fetcher) resultFromCache(rawURL string, entry *webtk.CacheEntry, opts webtk.FetchOptions) (*webtk.FetchResult, error) {
	body, err := os.ReadFile(entry.BodyPath)
	if err != nil {
		return nil, webtk.Errorf(webtk.EIO, "reading cached body: %v", err)
	}

	meta := entry.Metadata
	doc := webtk.NewDocument(rawURL, webtk.FetchMethodHTTP)
	doc.HTTP = &webtk.HTTPInfo{
		Status:    meta.Status,
		FinalURL:  meta.FinalURL,
		Headers:   meta.Headers,
		BytesRead: int64(len(body)),
		Truncated: meta.Truncated,
	}
	doc.Artifact = &webtk.ArtifactInfo{
		ContentType: meta.ContentType,
		BodyPath:    entry.BodyPath,
		BodyBytes:   int64(len(body)),
	}

	result := &webtk.FetchResult{
		Document:       doc,
		Classification: webtk.ClassOK,
		Body:           body,
		CacheHit:       true,
	}
	classify(result, body, opts.DetectBlocks)
	return result, nil
}

// selectedHeaderKeys is the response-header whitelist carried on the
// Document.
var selectedHeaderKeys = []string{"content-type", "content-length", "date", "last-modified", "etag"}

func selectHeaders(h http.Header) map[string]string {
	out := make(map[string]string)
	for _, key := range selectedHeaderKeys {
		if v := h.Get(key); v != "" {
			out[key] = v
		}
	}
	return out
}

func transportNextSteps() []string {
	return []string{
		"retry with --fresh",
		"retry with a higher --timeout",
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
