package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/sqlite"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(filepath.Join(t.TempDir(), "eval.db"))
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHistoryServiceRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	service := sqlite.NewHistoryService(db)
	ctx := context.Background()

	run := &webtk.EvalRun{
		SuitePath: "suite.jsonl",
		Provider:  "ddgs",
		Summary:   webtk.EvalSummary{Cases: 2, HitAtK: 0.5, MRR: 0.25},
		CaseHashes: map[string]string{
			"c1": "hash-one",
			"c2": "hash-two",
		},
	}
	require.NoError(t, service.RecordRun(ctx, run))
	assert.NotEmpty(t, run.ID)

	hashes, err := service.LastRunHashes(ctx, "suite.jsonl", "ddgs")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c1": "hash-one", "c2": "hash-two"}, hashes)
}

func TestHistoryServiceLatestRunWins(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	service := sqlite.NewHistoryService(db)
	ctx := context.Background()

	older := &webtk.EvalRun{
		SuitePath:  "suite.jsonl",
		Provider:   "ddgs",
		StartedAt:  time.Now().UTC().Add(-time.Hour),
		CaseHashes: map[string]string{"c1": "old"},
	}
	newer := &webtk.EvalRun{
		SuitePath:  "suite.jsonl",
		Provider:   "ddgs",
		CaseHashes: map[string]string{"c1": "new"},
	}
	require.NoError(t, service.RecordRun(ctx, older))
	require.NoError(t, service.RecordRun(ctx, newer))

	hashes, err := service.LastRunHashes(ctx, "suite.jsonl", "ddgs")
	require.NoError(t, err)
	assert.Equal(t, "new", hashes["c1"])
}

func TestHistoryServiceIsolation(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	service := sqlite.NewHistoryService(db)
	ctx := context.Background()

	require.NoError(t, service.RecordRun(ctx, &webtk.EvalRun{
		SuitePath:  "a.jsonl",
		Provider:   "ddgs",
		CaseHashes: map[string]string{"c": "x"},
	}))

	hashes, err := service.LastRunHashes(ctx, "b.jsonl", "ddgs")
	require.NoError(t, err)
	assert.Empty(t, hashes)

	hashes, err = service.LastRunHashes(ctx, "a.jsonl", "brave_api")
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestHistoryServiceValidation(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	service := sqlite.NewHistoryService(db)

	err := service.RecordRun(context.Background(), &webtk.EvalRun{})
	assert.Equal(t, webtk.EINVALID, webtk.ErrorCode(err))
}
