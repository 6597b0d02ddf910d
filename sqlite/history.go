package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tmustier/webtk"
)

// Compile-time interface verification.
var _ webtk.EvalHistory = (*HistoryService)(nil)

// HistoryService implements webtk.EvalHistory using SQLite.
type HistoryService struct {
	db *DB
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(db *DB) *HistoryService {
	return &HistoryService{db: db}
}

// RecordRun stores a completed run and its per-case content hashes.
func (s *HistoryService) RecordRun(ctx context.Context, run *webtk.EvalRun) error {
	if run.SuitePath == "" || run.Provider == "" {
		return webtk.Errorf(webtk.EINVALID, "eval run suite path and provider required")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO eval_runs (id, suite_path, provider, started_at, cases, hit_at_k, mrr, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SuitePath, run.Provider, run.StartedAt.Format(time.RFC3339),
		run.Summary.Cases, run.Summary.HitAtK, run.Summary.MRR, run.Summary.Errors)
	if err != nil {
		return webtk.Errorf(webtk.EIO, "recording eval run: %v", err)
	}

	for caseID, hash := range run.CaseHashes {
		if hash == "" {
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO eval_case_hashes (run_id, case_id, content_hash)
			VALUES (?, ?, ?)
		`, run.ID, caseID, hash)
		if err != nil {
			return webtk.Errorf(webtk.EIO, "recording case hash: %v", err)
		}
	}
	return nil
}

// LastRunHashes returns the case content hashes of the most recent
// recorded run for the suite and provider.
func (s *HistoryService) LastRunHashes(ctx context.Context, suitePath, provider string) (map[string]string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM eval_runs
		WHERE suite_path = ? AND provider = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, suitePath, provider).Scan(&runID)
	if err != nil {
		// No prior run is not an error.
		return map[string]string{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT case_id, content_hash FROM eval_case_hashes WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, webtk.Errorf(webtk.EIO, "loading case hashes: %v", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var caseID, hash string
		if err := rows.Scan(&caseID, &hash); err != nil {
			return nil, webtk.Errorf(webtk.EIO, "scanning case hash: %v", err)
		}
		hashes[caseID] = hash
	}
	return hashes, rows.Err()
}
