package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/pipeline"
)

// Run extracts readable content from a URL, a local file, or stdin.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	e := newEmitter("extract", deps)

	req := pipeline.ExtractRequest{
		Method:   c.Method,
		Strategy: c.Strategy,
		Limits:   webtk.ExtractLimits{MaxChars: c.MaxChars, MaxTokens: c.MaxTokens},
		Fetch:    fetchOptionsFromGlobals(deps),
		Render: webtk.RenderOptions{
			Timeout:     deps.Policy.Timeout,
			EvidenceDir: resolveEvidenceDir(deps, false),
		},
	}
	if isURL(c.Target) {
		req.URL = c.Target
	} else {
		req.SourcePath = c.Target
	}

	result := deps.Runner.Extract(deps.Ctx, req)
	e.warnAll(result.Warnings)
	if result.Doc != nil {
		e.markCache(result.CacheHit, false)
		e.warnAll(result.Doc.Warnings)
	}

	var data map[string]any
	if result.Doc != nil {
		data = map[string]any{"document": result.Doc}
	}

	if result.Err != nil {
		return e.failure(result.Err, data)
	}

	return e.success(data, func(w io.Writer) {
		fmt.Fprintln(w, strings.TrimRight(c.selectOutput(result.Doc.Extracted), "\n"))
	})
}

// selectOutput picks the plain-mode rendition of the extraction.
func (c *ExtractCmd) selectOutput(extracted *webtk.ExtractedContent) string {
	if extracted == nil {
		return ""
	}
	switch {
	case c.Text:
		return extracted.Text
	case c.Both:
		return extracted.Markdown + "\n\n---\n\n" + extracted.Text
	default:
		// Markdown is the default rendition; fall back to text when the
		// page yielded none.
		if extracted.Markdown != "" {
			return extracted.Markdown
		}
		return extracted.Text
	}
}

// isURL distinguishes URL targets from file paths and stdin.
func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// fetchOptionsFromGlobals builds the FetchOptions shared by the
// orchestrated commands.
func fetchOptionsFromGlobals(deps *Dependencies) webtk.FetchOptions {
	return webtk.FetchOptions{
		MaxBytes:        deps.Policy.MaxBytes,
		Timeout:         deps.Policy.Timeout,
		FollowRedirects: deps.Policy.FollowRedirects,
		DetectBlocks:    deps.Policy.DetectBlocks,
		Proxy:           deps.Globals.Proxy,
		Fresh:           deps.Globals.Fresh,
		NoStore:         deps.Globals.NoCache,
	}
}
