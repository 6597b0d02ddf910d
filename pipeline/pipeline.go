package pipeline

import (
	"context"

	"github.com/tmustier/webtk"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the parallel fetch leg.
const DefaultConcurrency = 4

// PipelineRequest is a search → pick → extract job.
type PipelineRequest struct {
	Query         webtk.SearchQuery
	Provider      string
	TopK          int
	ExtractK      int
	PreferDomains []string

	// Plan emits the candidate selection without fetching.
	Plan bool

	Extract ExtractRequest
}

// Candidate is one selected search result with its selection rationale.
type Candidate struct {
	Rank            int                `json:"rank"`
	Result          webtk.SearchResult `json:"result"`
	Reason          string             `json:"reason"`
	PreferredDomain string             `json:"preferred_domain,omitempty"`
}

// DocumentError records a per-URL failure without aborting the bundle.
type DocumentError struct {
	URL     string `json:"url"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PipelineResult is the bundle emitted by Run. Partial success is
// preserved: successfully extracted documents appear alongside per-URL
// errors, in re-ranked candidate order.
type PipelineResult struct {
	Query      string               `json:"query"`
	Candidates []Candidate          `json:"candidates"`
	Documents  []*webtk.Document    `json:"documents"`
	Errors     []DocumentError      `json:"errors,omitempty"`
	Results    []webtk.SearchResult `json:"results"`
	Plan       bool                 `json:"plan"`

	Providers []string `json:"-"`
	Warnings  []string `json:"-"`
	CacheHits int      `json:"-"`
	Fetches   int      `json:"-"`
}

// Run executes the pipeline: search, filter through domain rules, re-rank
// by preferred domains, then extract the first ExtractK candidates with a
// bounded worker pool. Results are joined in candidate order regardless of
// fetch completion order.
func (r *Runner) Run(ctx context.Context, req PipelineRequest) (*PipelineResult, error) {
	if req.TopK <= 0 || req.ExtractK <= 0 {
		return nil, webtk.Errorf(webtk.EINVALID, "--top-k and --extract-k must be >= 1")
	}

	provider, err := r.Registry.Select(req.Provider)
	if err != nil {
		return nil, err
	}

	out := &PipelineResult{
		Query:     req.Query.Query,
		Plan:      req.Plan,
		Providers: []string{provider.ID()},
		Documents: []*webtk.Document{},
	}
	for _, w := range r.Registry.Warnings(provider.ID()) {
		out.Warnings = webtk.AppendWarning(out.Warnings, w)
	}

	query := req.Query
	query.MaxResults = req.TopK
	results, err := provider.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	filtered := results[:0:len(results)]
	for _, result := range results {
		if r.Policy.Allows(result.URL) {
			filtered = append(filtered, result)
		}
	}
	if len(filtered) > req.TopK {
		filtered = filtered[:req.TopK]
	}
	out.Results = filtered
	out.Candidates = selectCandidates(filtered, req.ExtractK, req.PreferDomains)

	if req.Plan || len(out.Candidates) == 0 {
		return out, nil
	}

	r.extractCandidates(ctx, req, out)
	return out, nil
}

// extractCandidates fetches and extracts the candidates concurrently,
// joining results into candidate order.
func (r *Runner) extractCandidates(ctx context.Context, req PipelineRequest, out *PipelineResult) {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	slots := make([]ExtractResult, len(out.Candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, candidate := range out.Candidates {
		g.Go(func() error {
			if r.RateLimiter != nil {
				if host := webtk.Host(candidate.Result.URL); host != "" {
					if err := r.RateLimiter.Wait(gctx, host); err != nil {
						slots[i] = ExtractResult{Err: webtk.Errorf(webtk.ETIMEOUT, "rate limit wait canceled: %v", err)}
						return nil
					}
				}
			}
			extractReq := req.Extract
			extractReq.URL = candidate.Result.URL
			extractReq.SourcePath = ""
			slots[i] = r.Extract(gctx, extractReq)
			return nil
		})
	}
	_ = g.Wait()

	for i, slot := range slots {
		out.Fetches++
		if slot.CacheHit {
			out.CacheHits++
		}
		for _, w := range slot.Warnings {
			out.Warnings = webtk.AppendWarning(out.Warnings, w)
		}
		if slot.Err != nil {
			out.Errors = append(out.Errors, DocumentError{
				URL:     out.Candidates[i].Result.URL,
				Code:    webtk.ErrorCode(slot.Err),
				Message: webtk.ErrorMessage(slot.Err),
			})
			continue
		}
		out.Documents = append(out.Documents, slot.Doc)
	}
}

// selectCandidates re-ranks results by preferred domains with a stable
// sort — matches first, original order within each bucket — and keeps the
// first extractK.
func selectCandidates(results []webtk.SearchResult, extractK int, preferDomains []string) []Candidate {
	var preferred, remaining []Candidate
	for rank, result := range results {
		candidate := Candidate{Rank: rank + 1, Result: result, Reason: "top_rank"}
		if domain := matchPreferredDomain(result.URL, preferDomains); domain != "" {
			candidate.Reason = "preferred_domain"
			candidate.PreferredDomain = domain
			preferred = append(preferred, candidate)
		} else {
			remaining = append(remaining, candidate)
		}
	}
	ordered := append(preferred, remaining...)
	if len(ordered) > extractK {
		ordered = ordered[:extractK]
	}
	return ordered
}

func matchPreferredDomain(url string, preferDomains []string) string {
	host := webtk.Host(url)
	if host == "" {
		return ""
	}
	for _, domain := range preferDomains {
		if webtk.HostMatchesDomain(host, domain) {
			return domain
		}
	}
	return ""
}
