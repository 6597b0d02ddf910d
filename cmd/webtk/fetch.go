package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tmustier/webtk"
)

// Run fetches a URL over HTTP and emits the Document with its
// classification.
func (c *FetchCmd) Run(deps *Dependencies) error {
	e := newEmitter("fetch", deps)

	headers, err := c.parseHeaders()
	if err != nil {
		return e.failure(err, nil)
	}

	if err := deps.Runner.EnforceURL(deps.Ctx, c.URL, "fetch", &e.warnings); err != nil {
		return e.failure(err, nil)
	}

	opts := webtk.FetchOptions{
		Headers:         headers,
		MaxBytes:        c.MaxBytes,
		Timeout:         deps.Policy.Timeout,
		FollowRedirects: c.FollowRedirects,
		DetectBlocks:    c.DetectBlocks,
		Proxy:           deps.Globals.Proxy,
		Fresh:           deps.Globals.Fresh,
		NoStore:         deps.Globals.NoCache,
	}

	result, err := deps.Fetcher.Fetch(deps.Ctx, c.URL, opts)
	if err != nil {
		return e.failure(err, nil)
	}
	e.markCache(result.CacheHit, result.CacheStored)
	e.warnAll(result.Document.Warnings)
	if deps.Globals.Fresh && !result.CacheHit {
		e.warn("cache bypassed by --fresh")
	}

	data := map[string]any{"document": result.Document}
	if c.IncludeBody {
		data["body"] = string(result.Body)
	}

	if !result.OK() {
		failure := webtk.Errorf(result.Classification.ErrorCode(), "fetch failed: %s", result.Reason)
		failure.Details = map[string]any{"reason": result.Reason}
		if len(result.NextSteps) > 0 {
			failure.Details["next_steps"] = result.NextSteps
		}
		return e.failure(failure, data)
	}

	return e.success(data, func(w io.Writer) {
		if result.Document.Artifact != nil && result.Document.Artifact.BodyPath != "" {
			fmt.Fprintln(w, result.Document.Artifact.BodyPath)
		}
	})
}

// parseHeaders merges --header and --headers-file entries over nothing;
// defaults are applied, and restricted credential headers rejected, inside
// the fetch engine.
func (c *FetchCmd) parseHeaders() (map[string]string, error) {
	headers := make(map[string]string)

	for _, entry := range c.Header {
		key, value, found := strings.Cut(entry, ":")
		if !found {
			return nil, webtk.Errorf(webtk.EINVALID, "invalid --header value %q (expected key:value)", entry)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if c.HeadersFile != "" {
		var raw []byte
		var err error
		if c.HeadersFile == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(c.HeadersFile)
		}
		if err != nil {
			return nil, webtk.Errorf(webtk.EIO, "reading headers file: %v", err)
		}
		var parsed map[string]string
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, webtk.Errorf(webtk.EINVALID, "--headers-file must contain a JSON object of strings")
		}
		for k, v := range parsed {
			headers[k] = v
		}
	}

	if c.UserAgent != "" {
		headers["user-agent"] = c.UserAgent
	}
	if c.AcceptLanguage != "" {
		headers["accept-language"] = c.AcceptLanguage
	}
	return headers, nil
}
