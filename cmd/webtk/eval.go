package main

import (
	"fmt"
	"io"

	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/eval"
	"github.com/tmustier/webtk/pipeline"
)

// Run executes an evaluation suite and reports IR and extraction metrics.
func (c *EvalCmd) Run(deps *Dependencies) error {
	e := newEmitter("eval", deps)

	suite, err := eval.LoadSuite(c.Suite)
	if err != nil {
		return e.failure(err, nil)
	}

	runner := deps.Eval
	if c.Record {
		db, history, err := openHistory(deps.HistoryDBPath)
		if err != nil {
			return e.failure(err, nil)
		}
		defer db.Close()
		runner = &eval.Runner{Pipeline: runner.Pipeline, History: history}
	}

	result, err := runner.Run(deps.Ctx, eval.Request{
		Suite:          suite,
		Providers:      c.Provider,
		K:              c.K,
		IncludeResults: c.IncludeResults,
		Record:         c.Record,
		Extract: pipeline.ExtractRequest{
			Method:   "http",
			Strategy: webtk.StrategyAuto,
			Fetch:    fetchOptionsFromGlobals(deps),
		},
	})
	if err != nil {
		return e.failure(err, nil)
	}

	for _, id := range result.Providers {
		e.addProvider(id)
	}
	e.warnAll(result.Warnings)
	e.cacheHit = result.Summary.CacheHitRatio > 0
	ratio := result.Summary.CacheHitRatio
	e.hitRatio = &ratio

	data := map[string]any{
		"cases":   result.Cases,
		"summary": result.Summary,
	}

	if err := e.success(data, func(w io.Writer) {
		fmt.Fprintf(w, "cases=%d hit@k=%.3f mrr=%.3f blocked=%.3f needs_render=%.3f nonempty=%.3f\n",
			result.Summary.Cases,
			result.Summary.HitAtK,
			result.Summary.MRR,
			result.Summary.BlockedRate,
			result.Summary.NeedsRenderRate,
			result.Summary.ExtractionNonemptyRate,
		)
	}); err != nil {
		return err
	}

	deps.ExitCode = eval.ExitCode(c.FailOn, result)
	return nil
}
