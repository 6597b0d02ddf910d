// Package slog provides logging decorators for the retrieval
// collaborators. Decorators wrap the root interfaces and log timing and
// outcomes without changing behavior.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/tmustier/webtk"
)

// Ensure LoggingFetcher implements webtk.Fetcher.
var _ webtk.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging of classification and
// timing.
type LoggingFetcher struct {
	next   webtk.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a LoggingFetcher.
func NewLoggingFetcher(next webtk.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string, opts webtk.FetchOptions) (*webtk.FetchResult, error) {
	begin := time.Now()
	result, err := f.next.Fetch(ctx, url, opts)
	if err != nil {
		f.logger.Debug("fetch failed",
			"url", webtk.RedactURL(url),
			"error", err,
			"duration", time.Since(begin),
		)
		return result, err
	}
	f.logger.Debug("fetch",
		"url", webtk.RedactURL(url),
		"classification", string(result.Classification),
		"reason", result.Reason,
		"cache_hit", result.CacheHit,
		"duration", time.Since(begin),
	)
	return result, nil
}
