// Package eval runs suite-driven evaluations of search and extraction
// quality: hit@k and MRR over provider results, plus fetch/extract health
// metrics over a deterministic, cache-backed replay.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmustier/webtk"
)

// rawCase tolerates the suite formats: string-or-list expectations.
type rawCase struct {
	ID              string          `json:"id"`
	Query           string          `json:"query"`
	ExpectedURLs    json.RawMessage `json:"expected_urls"`
	ExpectedDomains json.RawMessage `json:"expected_domains"`
	K               int             `json:"k"`
}

// LoadSuite parses a suite file. JSONL files take one case per line with
// blank lines and #-prefixed comment lines ignored; other files parse as a
// JSON array or an object with a "cases" array.
func LoadSuite(path string) (*webtk.EvalSuite, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, webtk.Errorf(webtk.EIO, "reading suite %s: %v", path, err)
	}
	return ParseSuite(path, content)
}

// ParseSuite parses suite content; the path picks the format by extension.
func ParseSuite(path string, content []byte) (*webtk.EvalSuite, error) {
	var cases []webtk.EvalCase
	var err error

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		cases, err = parseJSONL(content)
	} else {
		cases, err = parseJSON(content)
	}
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, webtk.Errorf(webtk.EINVALID, "suite contains no cases")
	}

	for i := range cases {
		if cases[i].ID == "" {
			cases[i].ID = fmt.Sprintf("case-%d", i+1)
		}
		if err := cases[i].Validate(); err != nil {
			return nil, err
		}
	}

	return &webtk.EvalSuite{Path: path, Cases: cases}, nil
}

func parseJSONL(content []byte) ([]webtk.EvalCase, error) {
	var cases []webtk.EvalCase
	for lineno, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		var raw rawCase
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, webtk.Errorf(webtk.EPARSE, "invalid JSON on suite line %d: %v", lineno+1, err)
		}
		parsed, err := convertCase(raw)
		if err != nil {
			return nil, err
		}
		cases = append(cases, parsed)
	}
	return cases, nil
}

func parseJSON(content []byte) ([]webtk.EvalCase, error) {
	var list []rawCase
	if err := json.Unmarshal(content, &list); err == nil {
		return convertCases(list)
	}

	var wrapper struct {
		Cases []rawCase `json:"cases"`
	}
	if err := json.Unmarshal(content, &wrapper); err != nil || wrapper.Cases == nil {
		return nil, webtk.Errorf(webtk.EPARSE, "suite must be a JSON array or an object with a \"cases\" array")
	}
	return convertCases(wrapper.Cases)
}

func convertCases(raws []rawCase) ([]webtk.EvalCase, error) {
	cases := make([]webtk.EvalCase, 0, len(raws))
	for _, raw := range raws {
		parsed, err := convertCase(raw)
		if err != nil {
			return nil, err
		}
		cases = append(cases, parsed)
	}
	return cases, nil
}

func convertCase(raw rawCase) (webtk.EvalCase, error) {
	urls, err := stringList(raw.ExpectedURLs, "expected_urls")
	if err != nil {
		return webtk.EvalCase{}, err
	}
	domains, err := stringList(raw.ExpectedDomains, "expected_domains")
	if err != nil {
		return webtk.EvalCase{}, err
	}
	return webtk.EvalCase{
		ID:              strings.TrimSpace(raw.ID),
		Query:           strings.TrimSpace(raw.Query),
		ExpectedURLs:    urls,
		ExpectedDomains: domains,
		K:               raw.K,
	}, nil
}

// stringList accepts a JSON string, a list of strings, or null.
func stringList(raw json.RawMessage, field string) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, webtk.Errorf(webtk.EPARSE, "%s must be a string or list of strings", field)
	}
	var out []string
	for _, item := range list {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
