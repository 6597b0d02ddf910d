package http

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmustier/webtk"
)

// Body patterns signalling a page that only renders under JavaScript.
var needsRenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)enable javascript`),
	regexp.MustCompile(`(?i)checking your browser`),
	regexp.MustCompile(`(?i)verify you are human`),
	regexp.MustCompile(`(?i)<noscript>[^<]{0,200}required`),
}

// Consent-interstitial keywords; a match plus a form on the page
// classifies as a consent wall.
var consentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)before you continue`),
	regexp.MustCompile(`(?i)accept (?:all )?cookies`),
	regexp.MustCompile(`(?i)cookie consent`),
	regexp.MustCompile(`(?i)we value your privacy`),
}

// smallBodyThreshold is the size under which a script-only HTML shell is
// treated as JS-only.
const smallBodyThreshold = 2048

// classify applies the ordered block/JS-only rules to an assembled fetch
// result. First match wins:
//
//  1. 401/403/429 -> blocked (http_{status})
//  2. 404 -> not_found
//  3. 5xx -> transport_error (retry decision is the caller's)
//  4. 2xx HTML bot-wall/JS-only signature -> needs_render
//  5. 2xx consent interstitial -> blocked (consent_wall)
//  6. ok
//
// With detectBlocks false, rules 4 and 5 are skipped.
func classify(result *webtk.FetchResult, body []byte, detectBlocks bool) {
	doc := result.Document
	if doc.HTTP == nil {
		return
	}
	status := doc.HTTP.Status

	switch {
	case status == 401 || status == 403 || status == 429:
		result.Classification = webtk.ClassBlocked
		result.Reason = fmt.Sprintf("http_%d", status)
		result.NextSteps = blockedNextSteps()
		return
	case status == 404:
		result.Classification = webtk.ClassNotFound
		result.Reason = "http_404"
		result.NextSteps = []string{"verify the URL is correct"}
		return
	case status >= 500:
		result.Classification = webtk.ClassTransportError
		result.Reason = fmt.Sprintf("http_%d", status)
		result.NextSteps = transportNextSteps()
		return
	}

	if !detectBlocks || status < 200 || status >= 300 {
		return
	}
	if !strings.Contains(doc.Artifact.ContentType, "html") {
		return
	}

	preview := string(body)
	if len(preview) > 200_000 {
		preview = preview[:200_000]
	}

	for _, pattern := range needsRenderPatterns {
		if pattern.MatchString(preview) {
			markNeedsRender(result, "js_challenge")
			return
		}
	}
	if isScriptShell(body) {
		markNeedsRender(result, "js_shell")
		return
	}

	for _, pattern := range consentPatterns {
		if pattern.MatchString(preview) && strings.Contains(strings.ToLower(preview), "<form") {
			result.Classification = webtk.ClassBlocked
			result.Reason = "consent_wall"
			result.NextSteps = blockedNextSteps()
			return
		}
	}
}

// isScriptShell reports whether the body is a very small HTML shell with a
// script tag and no visible text, the signature of an SPA entry point.
func isScriptShell(body []byte) bool {
	if len(body) >= smallBodyThreshold {
		return false
	}
	lower := strings.ToLower(string(body))
	if !strings.Contains(lower, "<script") {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return false
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text()) == ""
}

func markNeedsRender(result *webtk.FetchResult, reason string) {
	result.Classification = webtk.ClassNeedsRender
	result.Reason = reason
	result.NextSteps = []string{
		"render " + result.Document.URL,
		"extract " + result.Document.URL + " --method browser",
	}
}

func blockedNextSteps() []string {
	return []string{
		"adjust request headers (--user-agent, --accept-language)",
		"route through a proxy (--proxy)",
		"try a different search provider for an alternative source",
	}
}
