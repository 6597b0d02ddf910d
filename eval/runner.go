package eval

import (
	"context"
	"strings"
	"time"

	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/pipeline"
)

// Request configures an evaluation run.
type Request struct {
	Suite *webtk.EvalSuite

	// Providers to evaluate; empty means ["auto"].
	Providers []string

	// K is the top-k cutoff for hit@k and MRR, overridable per case.
	K int

	// IncludeResults embeds the raw search results in each case result.
	IncludeResults bool

	// Record persists the run to history and reports drift against the
	// previous recorded run.
	Record bool

	Extract pipeline.ExtractRequest
}

// Result is a full evaluation run.
type Result struct {
	Cases   []webtk.CaseResult `json:"cases"`
	Summary webtk.EvalSummary  `json:"summary"`

	Providers []string `json:"-"`
	Warnings  []string `json:"-"`
}

// Runner executes evaluation suites. The fetch+extract leg goes through
// the pipeline Runner so eval replays deterministically from the cache.
type Runner struct {
	Pipeline *pipeline.Runner
	History  webtk.EvalHistory
}

// Run evaluates every suite case against every requested provider. Cases
// never abort the run; provider and transport failures are recorded on
// the case result and counted in the summary.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Suite == nil || len(req.Suite.Cases) == 0 {
		return nil, webtk.Errorf(webtk.EINVALID, "eval suite required")
	}
	k := req.K
	if k <= 0 {
		k = 10
	}
	providers := req.Providers
	if len(providers) == 0 {
		providers = []string{"auto"}
	}

	out := &Result{}
	var fetches, cacheHits int

	for _, providerID := range providers {
		provider, err := r.Pipeline.Registry.Select(providerID)
		if err != nil {
			return nil, err
		}
		resolved := provider.ID()
		out.Providers = appendUnique(out.Providers, resolved)
		for _, w := range r.Pipeline.Registry.Warnings(resolved) {
			out.Warnings = webtk.AppendWarning(out.Warnings, w)
		}

		var priorHashes map[string]string
		if req.Record && r.History != nil {
			priorHashes, _ = r.History.LastRunHashes(ctx, req.Suite.Path, resolved)
		}

		for _, c := range req.Suite.Cases {
			caseResult := r.runCase(ctx, provider, c, k, req)
			if prior, ok := priorHashes[c.ID]; ok && caseResult.ContentHash != "" && prior != caseResult.ContentHash {
				caseResult.Drifted = true
			}
			if caseResult.Classification != "" {
				fetches++
			}
			if caseResult.CacheHit {
				cacheHits++
			}
			out.Cases = append(out.Cases, caseResult)
		}
	}

	out.Summary = summarize(out.Cases, fetches, cacheHits)

	if req.Record && r.History != nil {
		r.record(ctx, req, out)
	}
	return out, nil
}

// runCase executes search, scoring, and the fetch+extract leg for one
// case and provider.
func (r *Runner) runCase(ctx context.Context, provider webtk.SearchProvider, c webtk.EvalCase, k int, req Request) webtk.CaseResult {
	result := webtk.CaseResult{Case: c, Provider: provider.ID()}

	query := webtk.SearchQuery{Query: c.Query, MaxResults: max(k, c.K)}
	results, err := provider.Search(ctx, query)
	if err != nil {
		result.Error = webtk.ErrorMessage(err)
		return result
	}

	result.Score = Score(results, c, k)
	if req.IncludeResults {
		result.Results = results
	}

	target := selectFetchTarget(results, c)
	if target == "" {
		return result
	}
	result.FetchedURL = target

	extractReq := req.Extract
	extractReq.URL = target
	extractReq.SourcePath = ""
	extracted := r.Pipeline.Extract(ctx, extractReq)
	result.CacheHit = extracted.CacheHit

	if extracted.Err != nil {
		code := webtk.ErrorCode(extracted.Err)
		result.Classification = code
		if code != webtk.EBLOCKED && code != webtk.ENEEDSRENDER && code != webtk.ENOTFOUND {
			result.Error = webtk.ErrorMessage(extracted.Err)
		}
		return result
	}

	result.Classification = string(webtk.ClassOK)
	if extracted.Doc != nil && extracted.Doc.Extracted != nil {
		text := extracted.Doc.Extracted.Markdown
		if text == "" {
			text = extracted.Doc.Extracted.Text
		}
		result.ExtractedWords = len(strings.Fields(text))
		result.ContentHash = extracted.Doc.Extracted.ContentHash
	}
	return result
}

// selectFetchTarget picks the fetch+extract leg's URL: the first expected
// URL present in the results, else the top result.
func selectFetchTarget(results []webtk.SearchResult, c webtk.EvalCase) string {
	if len(results) == 0 {
		return ""
	}
	for _, expected := range c.ExpectedURLs {
		normalized := webtk.NormalizeURL(expected)
		for _, result := range results {
			if webtk.NormalizeURL(result.URL) == normalized {
				return result.URL
			}
		}
	}
	return results[0].URL
}

func summarize(cases []webtk.CaseResult, fetches, cacheHits int) webtk.EvalSummary {
	summary := webtk.EvalSummary{Cases: len(cases)}
	if len(cases) == 0 {
		return summary
	}

	var criteriaCases, hits int
	var mrrSum float64
	var blocked, needsRender, nonempty, extracted int
	var wordSum int

	for _, c := range cases {
		if c.Error != "" {
			summary.Errors++
		}
		if c.Drifted {
			summary.DriftCount++
		}
		if c.Score != nil && (c.Score.HasURLCriteria || c.Score.HasDomainCriteria) {
			criteriaCases++
			if Hit(c.Score) {
				hits++
			}
			mrrSum += MRR(c.Score)
		}
		switch c.Classification {
		case string(webtk.ClassBlocked):
			blocked++
		case string(webtk.ClassNeedsRender):
			needsRender++
		case string(webtk.ClassOK):
			extracted++
			if c.ExtractedWords > 0 {
				nonempty++
				wordSum += c.ExtractedWords
			}
		}
	}

	if criteriaCases > 0 {
		summary.HitAtK = float64(hits) / float64(criteriaCases)
		summary.MRR = mrrSum / float64(criteriaCases)
	}
	summary.BlockedRate = float64(blocked) / float64(len(cases))
	summary.NeedsRenderRate = float64(needsRender) / float64(len(cases))
	if extracted > 0 {
		summary.ExtractionNonemptyRate = float64(nonempty) / float64(extracted)
	}
	if nonempty > 0 {
		summary.MeanExtractedWords = float64(wordSum) / float64(nonempty)
	}
	if fetches > 0 {
		summary.CacheHitRatio = float64(cacheHits) / float64(fetches)
	}
	return summary
}

// record persists the run per provider; history failures degrade to
// warnings.
func (r *Runner) record(ctx context.Context, req Request, out *Result) {
	byProvider := make(map[string]map[string]string)
	for _, c := range out.Cases {
		if c.ContentHash == "" {
			continue
		}
		if byProvider[c.Provider] == nil {
			byProvider[c.Provider] = make(map[string]string)
		}
		byProvider[c.Provider][c.Case.ID] = c.ContentHash
	}

	for _, providerID := range out.Providers {
		run := &webtk.EvalRun{
			SuitePath:  req.Suite.Path,
			Provider:   providerID,
			StartedAt:  time.Now().UTC(),
			Summary:    out.Summary,
			CaseHashes: byProvider[providerID],
		}
		if err := r.History.RecordRun(ctx, run); err != nil {
			out.Warnings = webtk.AppendWarning(out.Warnings, "eval history: "+webtk.ErrorMessage(err))
		}
	}
}

// ExitCode maps the run outcome to the process exit code per the fail-on
// mode.
func ExitCode(failOn string, out *Result) int {
	hasError := out.Summary.Errors > 0
	hasMiss := false
	for _, c := range out.Cases {
		if c.Score != nil && (c.Score.HasURLCriteria || c.Score.HasDomainCriteria) && !Hit(c.Score) {
			hasMiss = true
			break
		}
	}

	switch failOn {
	case webtk.FailOnError:
		if hasError {
			return webtk.ExitRuntime
		}
	case webtk.FailOnMiss:
		if hasMiss {
			return webtk.ExitRuntime
		}
	case webtk.FailOnMissOrError:
		if hasMiss || hasError {
			return webtk.ExitRuntime
		}
	}
	return webtk.ExitOK
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
