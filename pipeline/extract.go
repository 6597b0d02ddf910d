// Package pipeline orchestrates the retrieval legs: fetch with browser
// fallback, extraction dispatch, and the search → pick → extract loop.
// It coordinates the collaborators behind the root interfaces and owns
// the bounded concurrency of the fetch leg.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tmustier/webtk"
)

// ExtractRequest is one extraction job.
type ExtractRequest struct {
	// URL or SourcePath identifies the input; "-" reads stdin.
	URL        string
	SourcePath string

	// Method is http, browser, or auto (http first, browser on
	// needs_render).
	Method string

	// Strategy is auto, readability, or docs.
	Strategy string

	Limits webtk.ExtractLimits
	Fetch  webtk.FetchOptions
	Render webtk.RenderOptions
}

// Runner coordinates fetching, rendering, and extraction. All collaborators
// are interfaces; Renderer may be nil when browser rendering is
// unavailable.
type Runner struct {
	Fetcher     webtk.Fetcher
	Renderer    webtk.Renderer
	Detector    webtk.StrategyDetector
	Readability webtk.Extractor
	Docs        webtk.Extractor
	Language    webtk.LanguageDetector
	Robots      webtk.RobotsChecker
	Registry    webtk.ProviderRegistry
	RateLimiter webtk.DomainLimiter
	Policy      webtk.Policy

	// Concurrency bounds the parallel fetch leg. Defaults to 4.
	Concurrency int

	// Stdin supplies the "-" extraction source; defaults to os.Stdin.
	Stdin func() ([]byte, error)
}

// ExtractResult carries the outcome of one extraction alongside warnings
// discovered on the way. Once a document was fetched, rendered, or read,
// Doc is present even when Err is set, so callers can embed the raw
// document for retries with another strategy; a refusal or failure before
// that point leaves Doc nil.
type ExtractResult struct {
	Doc      *webtk.Document
	Warnings []string
	CacheHit bool
	Err      error
}

// Extract runs the full extraction flow for a URL, file path, or stdin.
func (r *Runner) Extract(ctx context.Context, req ExtractRequest) ExtractResult {
	if req.SourcePath != "" {
		return r.extractProvided(req)
	}
	return r.extractURL(ctx, req)
}

// extractProvided reads HTML from a file or stdin and synthesizes a
// provided Document.
func (r *Runner) extractProvided(req ExtractRequest) ExtractResult {
	var raw []byte
	var err error

	if req.SourcePath == "-" {
		read := r.Stdin
		if read == nil {
			read = readStdin
		}
		raw, err = read()
	} else {
		raw, err = os.ReadFile(req.SourcePath)
	}
	if err != nil {
		return ExtractResult{Err: webtk.Errorf(webtk.EIO, "reading %s: %v", req.SourcePath, err)}
	}

	doc := webtk.NewDocument("", webtk.FetchMethodProvided)
	doc.SourcePath = req.SourcePath
	doc.Artifact = &webtk.ArtifactInfo{
		ContentType: "text/html",
		BodyBytes:   int64(len(raw)),
	}

	result := ExtractResult{Doc: doc}
	r.extractInto(&result, doc, string(raw), "", req)
	return result
}

// extractURL enforces policy, fetches over HTTP, and escalates to the
// browser on needs_render when the method allows it.
func (r *Runner) extractURL(ctx context.Context, req ExtractRequest) ExtractResult {
	var result ExtractResult

	if err := r.EnforceURL(ctx, req.URL, "extract", &result.Warnings); err != nil {
		result.Err = err
		return result
	}

	if req.Method == "browser" {
		return r.extractViaBrowser(ctx, req, &result)
	}

	fetched, err := r.Fetcher.Fetch(ctx, req.URL, req.Fetch)
	if err != nil {
		result.Err = err
		return result
	}
	result.Doc = fetched.Document
	result.CacheHit = fetched.CacheHit

	if fetched.Classification == webtk.ClassNeedsRender && req.Method == "auto" && r.Renderer != nil {
		result.Warnings = webtk.AppendWarning(result.Warnings, "page needs JavaScript; escalating to browser render")
		return r.extractViaBrowser(ctx, req, &result)
	}

	if !fetched.OK() {
		err := webtk.Errorf(fetched.Classification.ErrorCode(), "fetch failed: %s", fetched.Reason)
		err.Details = map[string]any{"reason": fetched.Reason}
		if len(fetched.NextSteps) > 0 {
			err.Details["next_steps"] = fetched.NextSteps
		}
		result.Err = err
		return result
	}

	if ct := fetched.Document.Artifact.ContentType; !strings.Contains(ct, "html") {
		result.Err = webtk.Errorf(webtk.EEXTRACT, "cannot extract from content type %q", ct)
		return result
	}

	r.extractInto(&result, fetched.Document, string(fetched.Body), fetched.Document.HTTP.FinalURL, req)
	return result
}

// extractViaBrowser renders the URL and extracts from the rendered DOM.
func (r *Runner) extractViaBrowser(ctx context.Context, req ExtractRequest, prior *ExtractResult) ExtractResult {
	result := ExtractResult{Warnings: prior.Warnings, CacheHit: prior.CacheHit}
	if r.Renderer == nil {
		result.Doc = prior.Doc
		result.Err = webtk.Errorf(webtk.ENEEDSRENDER, "browser rendering unavailable")
		return result
	}

	doc, html, err := r.Renderer.Render(ctx, req.URL, req.Render)
	if err != nil {
		result.Doc = prior.Doc
		result.Err = err
		return result
	}
	result.Doc = doc

	r.extractInto(&result, doc, html, req.URL, req)
	return result
}

// extractInto dispatches the strategy, fills Document.Extracted, and
// applies limits and the prompt-injection scan.
func (r *Runner) extractInto(result *ExtractResult, doc *webtk.Document, html, baseURL string, req ExtractRequest) {
	strategy := req.Strategy
	if strategy == "" || strategy == webtk.StrategyAuto {
		strategy = r.Detector.Detect(html, baseURL)
	}

	extractor := r.Readability
	if strategy == webtk.StrategyDocs {
		extractor = r.Docs
	}

	extracted, err := extractor.Extract(html, baseURL)
	if err != nil {
		result.Err = err
		return
	}

	if r.Language != nil && extracted.Language == "" {
		extracted.Language = r.Language.DetectLanguage(html, extracted.Text)
	}

	for _, w := range webtk.ApplyLimits(extracted, req.Limits) {
		result.Warnings = webtk.AppendWarning(result.Warnings, w)
	}
	for _, w := range webtk.ScanPromptInjection(extracted.Markdown) {
		result.Warnings = webtk.AppendWarning(result.Warnings, w)
	}

	doc.Extracted = extracted
	for _, w := range result.Warnings {
		doc.AddWarning(w)
	}
}

// EnforceURL applies domain gating and the robots stance to a URL-based
// network operation, appending robots warnings in warn mode.
func (r *Runner) EnforceURL(ctx context.Context, url, operation string, warnings *[]string) error {
	if err := r.Policy.EnforceURL(url, operation); err != nil {
		return err
	}

	switch r.Policy.RobotsMode {
	case webtk.RobotsIgnore, "":
		return nil
	case webtk.RobotsWarn, webtk.RobotsRespect:
	default:
		return webtk.Errorf(webtk.EINVALID, "invalid robots mode %q", r.Policy.RobotsMode)
	}
	if r.Robots == nil {
		return nil
	}

	decision, err := r.Robots.Check(ctx, url, "")
	if err != nil || decision.Allowed {
		return nil
	}
	if r.Policy.RobotsMode == webtk.RobotsWarn {
		*warnings = webtk.AppendWarning(*warnings, fmt.Sprintf("robots.txt disallows %s", webtk.RedactURL(url)))
		return nil
	}
	refusal := webtk.Errorf(webtk.EROBOTS, "robots.txt disallows fetching this URL")
	refusal.Details = map[string]any{"robots_url": decision.RobotsURL}
	return refusal
}

func readStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
