package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/eval"
)

func TestParseSuiteJSONL(t *testing.T) {
	t.Parallel()

	content := `# comment line

{"id": "go-docs", "query": "golang net/http docs", "expected_urls": ["https://pkg.go.dev/net/http"]}
{"query": "python asyncio", "expected_domains": "python.org", "k": 5}
`
	suite, err := eval.ParseSuite("suite.jsonl", []byte(content))
	require.NoError(t, err)
	require.Len(t, suite.Cases, 2)

	assert.Equal(t, "go-docs", suite.Cases[0].ID)
	assert.Equal(t, []string{"https://pkg.go.dev/net/http"}, suite.Cases[0].ExpectedURLs)

	// Missing ids are assigned positionally; scalar expectations coerce.
	assert.Equal(t, "case-2", suite.Cases[1].ID)
	assert.Equal(t, []string{"python.org"}, suite.Cases[1].ExpectedDomains)
	assert.Equal(t, 5, suite.Cases[1].K)
}

func TestParseSuiteJSON(t *testing.T) {
	t.Parallel()

	t.Run("array form", func(t *testing.T) {
		t.Parallel()
		suite, err := eval.ParseSuite("suite.json", []byte(`[{"id": "a", "query": "q1"}, {"id": "b", "query": "q2"}]`))
		require.NoError(t, err)
		assert.Len(t, suite.Cases, 2)
	})

	t.Run("object form with cases", func(t *testing.T) {
		t.Parallel()
		suite, err := eval.ParseSuite("suite.json", []byte(`{"cases": [{"id": "a", "query": "q"}]}`))
		require.NoError(t, err)
		assert.Len(t, suite.Cases, 1)
	})
}

func TestParseSuiteErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		content string
		code    string
	}{
		{"invalid JSONL line", "s.jsonl", "{broken", webtk.EPARSE},
		{"empty suite", "s.jsonl", "# only comments\n", webtk.EINVALID},
		{"missing query", "s.json", `[{"id": "a"}]`, webtk.EINVALID},
		{"wrong top-level shape", "s.json", `"just a string"`, webtk.EPARSE},
		{"bad expectation type", "s.json", `[{"query": "q", "expected_urls": 42}]`, webtk.EPARSE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := eval.ParseSuite(tt.path, []byte(tt.content))
			assert.Equal(t, tt.code, webtk.ErrorCode(err))
		})
	}
}
