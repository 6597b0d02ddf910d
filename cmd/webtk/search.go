package main

import (
	"fmt"
	"io"

	"github.com/tmustier/webtk"
)

// Run searches the web through the selected provider.
func (c *SearchCmd) Run(deps *Dependencies) error {
	e := newEmitter("search", deps)

	provider, err := deps.Registry.Select(c.Provider)
	if err != nil {
		return e.failure(err, nil)
	}
	e.addProvider(provider.ID())
	e.warnAll(deps.Registry.Warnings(provider.ID()))

	results, err := provider.Search(deps.Ctx, webtk.SearchQuery{
		Query:      c.Query,
		MaxResults: c.MaxResults,
		Region:     c.Region,
		SafeSearch: c.SafeSearch,
		TimeRange:  c.TimeRange,
	})
	if err != nil {
		return e.failure(err, nil)
	}

	// Block rules apply to search output even though the query itself is
	// not a URL operation.
	if len(deps.Policy.BlockDomains) > 0 || len(deps.Policy.AllowDomains) > 0 {
		filtered := results[:0]
		for _, r := range results {
			if deps.Policy.Allows(r.URL) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	data := map[string]any{
		"results":  results,
		"query":    c.Query,
		"provider": provider.ID(),
	}
	return e.success(data, func(w io.Writer) {
		for _, r := range results {
			fmt.Fprintln(w, e.plainURL(r.URL))
		}
	})
}
