package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// SnapshotStoreImpl implements snapshot persistence on a SQL backend.
// The full snapshot document is stored as JSON; dedicated columns exist
// only for the keys and filters queries need.
type SnapshotStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// UpsertSnapshot inserts or replaces the snapshot keyed by
// (run_id, owner, name). Replacement happens as delete plus insert inside
// one transaction so a retried repo never leaves two rows behind.
func (ss *SnapshotStoreImpl) UpsertSnapshot(snap *schema.RepoSnapshot) error {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil
	}

	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", snap.Repo.Slug(), err)
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := rebind(ss.backend, fmt.Sprintf(
		`DELETE FROM %s WHERE run_id = ? AND owner = ? AND name = ?`, snapshotsTable))
	if _, err := tx.Exec(deleteQuery, snap.RunID, snap.Repo.Owner, snap.Repo.Name); err != nil {
		return fmt.Errorf("failed to clear prior snapshot for %s: %w", snap.Repo.Slug(), err)
	}

	insertQuery := rebind(ss.backend, fmt.Sprintf(
		`INSERT INTO %s (run_id, owner, name, captured_at, status_ryg, snapshot) VALUES (?, ?, ?, ?, ?, ?)`, snapshotsTable))
	if _, err := tx.Exec(insertQuery,
		snap.RunID, snap.Repo.Owner, snap.Repo.Name,
		formatStoredTime(snap.CapturedAt), string(snap.StatusRYG), string(doc)); err != nil {
		return fmt.Errorf("failed to insert snapshot for %s: %w", snap.Repo.Slug(), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot for %s: %w", snap.Repo.Slug(), err)
	}
	return nil
}

// LatestSnapshots returns the newest snapshot per repo, ordered by slug.
func (ss *SnapshotStoreImpl) LatestSnapshots() ([]schema.RepoSnapshot, error) {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil, nil
	}

	// Rows arrive newest-first per repo; the first one seen wins. Done in
	// Go to stay portable across all three backends.
	query := fmt.Sprintf(
		`SELECT snapshot FROM %s ORDER BY owner, name, captured_at DESC, run_id DESC`, snapshotsTable)
	rows, err := ss.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []schema.RepoSnapshot
	seen := make(map[string]struct{})
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		slug := snap.Repo.Slug()
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// SnapshotsSince returns all snapshots captured at or after since.
func (ss *SnapshotStoreImpl) SnapshotsSince(since time.Time) ([]schema.RepoSnapshot, error) {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil, nil
	}

	query := rebind(ss.backend, fmt.Sprintf(
		`SELECT snapshot FROM %s WHERE captured_at >= ? ORDER BY captured_at, owner, name`, snapshotsTable))
	rows, err := ss.db.Query(query, formatStoredTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots since %s: %w", since.Format(contract.TimeFormat), err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []schema.RepoSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// scanSnapshot decodes one snapshot JSON column.
func scanSnapshot(rows *sql.Rows) (schema.RepoSnapshot, error) {
	var doc string
	if err := rows.Scan(&doc); err != nil {
		return schema.RepoSnapshot{}, fmt.Errorf("failed to scan snapshot row: %w", err)
	}
	var snap schema.RepoSnapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return schema.RepoSnapshot{}, fmt.Errorf("failed to decode snapshot document: %w", err)
	}
	return snap, nil
}
