package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// RunStoreImpl implements run bookkeeping on a SQL backend.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// StartRun inserts a run row and returns the record with a fresh run id.
// The none backend still returns a usable record so snapshots keep a run id.
func (rs *RunStoreImpl) StartRun(apiMode string, configHashes map[string]string) (*schema.RunRecord, error) {
	run := &schema.RunRecord{
		RunID:      newRunID(),
		StartedAt:  time.Now().UTC(),
		APIMode:    apiMode,
		ConfigHash: configHashes,
	}
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return run, nil
	}

	hashesJSON, err := json.Marshal(configHashes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config hashes: %w", err)
	}

	query := rebind(rs.backend, fmt.Sprintf(
		`INSERT INTO %s (run_id, started_at, api_mode, config_hashes) VALUES (?, ?, ?, ?)`, runsTable))
	if _, err := rs.db.Exec(query, run.RunID, formatStoredTime(run.StartedAt), apiMode, string(hashesJSON)); err != nil {
		return nil, fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}
	return run, nil
}

// FinishRun stamps the finish time and persists failures and outputs.
func (rs *RunStoreImpl) FinishRun(runID string, failures []schema.RepoFailure, outputs map[string]string) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}
	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}

	query := rebind(rs.backend, fmt.Sprintf(
		`UPDATE %s SET finished_at = ?, failures = ?, outputs = ? WHERE run_id = ?`, runsTable))
	result, err := rs.db.Exec(query, formatStoredTime(time.Now().UTC()), string(failuresJSON), string(outputsJSON), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (rs *RunStoreImpl) ListRuns(limit int) ([]schema.RunRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := rebind(rs.backend, fmt.Sprintf(
		`SELECT run_id, started_at, finished_at, api_mode, config_hashes, failures, outputs
		 FROM %s ORDER BY started_at DESC LIMIT ?`, runsTable))
	rows, err := rs.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []schema.RunRecord
	for rows.Next() {
		var run schema.RunRecord
		var started string
		var finished, hashes, failures, outputs sql.NullString
		if err := rows.Scan(&run.RunID, &started, &finished, &run.APIMode, &hashes, &failures, &outputs); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if run.StartedAt, err = parseStoredTime(started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at for run %s: %w", run.RunID, err)
		}
		if finished.Valid && finished.String != "" {
			t, err := parseStoredTime(finished.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse finished_at for run %s: %w", run.RunID, err)
			}
			run.FinishedAt = &t
		}
		if hashes.Valid && hashes.String != "" {
			if err := json.Unmarshal([]byte(hashes.String), &run.ConfigHash); err != nil {
				return nil, fmt.Errorf("failed to parse config hashes for run %s: %w", run.RunID, err)
			}
		}
		if failures.Valid && failures.String != "" {
			if err := json.Unmarshal([]byte(failures.String), &run.Failures); err != nil {
				return nil, fmt.Errorf("failed to parse failures for run %s: %w", run.RunID, err)
			}
		}
		if outputs.Valid && outputs.String != "" {
			if err := json.Unmarshal([]byte(outputs.String), &run.Outputs); err != nil {
				return nil, fmt.Errorf("failed to parse outputs for run %s: %w", run.RunID, err)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// newRunID builds a sortable run identifier with a random suffix so that
// concurrent processes never collide.
func newRunID() string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("run-%s-%s", time.Now().UTC().Format("20060102T150405Z"), hex.EncodeToString(suffix))
}

// formatStoredTime renders a timestamp in the fixed-width UTC form used by
// every backend. The format sorts lexicographically in time order.
func formatStoredTime(t time.Time) string {
	return t.UTC().Format(contract.TimeFormat)
}

// parseStoredTime reads a timestamp stored by formatStoredTime.
func parseStoredTime(s string) (time.Time, error) {
	return time.Parse(contract.TimeFormat, s)
}
