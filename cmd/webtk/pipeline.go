package main

import (
	"fmt"
	"io"

	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/pipeline"
)

// Run searches, selects candidates, and extracts the top results.
func (c *PipelineCmd) Run(deps *Dependencies) error {
	e := newEmitter("pipeline", deps)

	if c.Budget != "" {
		e.warn("--budget is reserved and not enforced")
	}

	req := pipeline.PipelineRequest{
		Query: webtk.SearchQuery{
			Query:      c.Query,
			MaxResults: c.TopK,
			Region:     c.Region,
			SafeSearch: c.SafeSearch,
			TimeRange:  c.TimeRange,
		},
		Provider:      c.Provider,
		TopK:          c.TopK,
		ExtractK:      c.ExtractK,
		PreferDomains: c.PreferDomain,
		Plan:          c.Plan,
		Extract: pipeline.ExtractRequest{
			Method:   c.Method,
			Strategy: c.Strategy,
			Limits:   webtk.ExtractLimits{MaxChars: c.MaxChars},
			Fetch:    fetchOptionsFromGlobals(deps),
			Render: webtk.RenderOptions{
				Timeout:     deps.Policy.Timeout,
				EvidenceDir: resolveEvidenceDir(deps, false),
			},
		},
	}

	result, err := deps.Runner.Run(deps.Ctx, req)
	if err != nil {
		return e.failure(err, nil)
	}

	for _, id := range result.Providers {
		e.addProvider(id)
	}
	e.warnAll(result.Warnings)
	if result.Fetches > 0 {
		e.markCache(result.CacheHits == result.Fetches, false)
	}

	data := map[string]any{
		"query":      result.Query,
		"results":    result.Results,
		"candidates": result.Candidates,
		"documents":  result.Documents,
		"plan":       result.Plan,
	}
	if len(result.Errors) > 0 {
		data["errors"] = result.Errors
	}

	return e.success(data, func(w io.Writer) {
		if result.Plan {
			for _, candidate := range result.Candidates {
				fmt.Fprintln(w, e.plainURL(candidate.Result.URL))
			}
			return
		}
		for i, doc := range result.Documents {
			if i > 0 {
				fmt.Fprintln(w, "---")
			}
			if doc.Extracted != nil && doc.Extracted.Markdown != "" {
				fmt.Fprintln(w, doc.Extracted.Markdown)
			}
		}
	})
}
