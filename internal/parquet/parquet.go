// Package parquet exports repo snapshots to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/repopulse/schema"
	"github.com/parquet-go/parquet-go"
)

// SnapshotRow is the flat, column-oriented form of one repo snapshot.
// Optional signals stay nullable so downstream tools can tell "not
// collected" apart from zero.
type SnapshotRow struct {
	// RunID identifies the batch run this snapshot belongs to
	RunID string `parquet:"run_id,snappy"`

	// CapturedAt is the shared capture timestamp of the run
	CapturedAt time.Time `parquet:"captured_at,snappy"`

	// Owner and Name identify the repository
	Owner string `parquet:"owner,snappy"`
	Name  string `parquet:"name,snappy"`

	// DevOwner and Team carry portfolio metadata (nullable)
	DevOwner *string `parquet:"dev_owner,optional,snappy"`
	Team     *string `parquet:"team,optional,snappy"`

	// DefaultBranch is the branch the signals were collected from
	DefaultBranch string `parquet:"default_branch,snappy"`

	// LastCommitAt is the most recent commit timestamp (nullable)
	LastCommitAt *time.Time `parquet:"last_commit_at,optional,snappy"`

	// Commits24h and Commits7d are activity window counts (nullable)
	Commits24h *int32 `parquet:"commits_24h,optional,snappy"`
	Commits7d  *int32 `parquet:"commits_7d,optional,snappy"`

	// TopFiles24h is a pipe-joined list of the most-changed files (nullable)
	TopFiles24h *string `parquet:"top_files_24h,optional,snappy"`

	// CIStatus and CIConclusion describe the latest workflow run
	CIStatus     string  `parquet:"ci_status,snappy"`
	CIConclusion *string `parquet:"ci_conclusion,optional,snappy"`

	// LatestRelease is the preferred release label (nullable)
	LatestRelease *string `parquet:"latest_release,optional,snappy"`

	// Hygiene signals (nullable when the tree scan did not run)
	TestsPresent  *bool `parquet:"tests_present,optional,snappy"`
	ReadmePresent *bool `parquet:"readme_present,optional,snappy"`

	// StatusRYG and StatusExplanation carry the scoring outcome
	StatusRYG         string `parquet:"status_ryg,snappy"`
	StatusExplanation string `parquet:"status_explanation,snappy"`

	// RiskFlagIDs is a pipe-joined list of fired risk rule ids (nullable)
	RiskFlagIDs *string `parquet:"risk_flag_ids,optional,snappy"`
}

// SnapshotRows converts scored snapshots into flat parquet rows.
func SnapshotRows(snapshots []schema.RepoSnapshot) []SnapshotRow {
	rows := make([]SnapshotRow, 0, len(snapshots))
	for _, snap := range snapshots {
		row := SnapshotRow{
			RunID:             snap.RunID,
			CapturedAt:        snap.CapturedAt,
			Owner:             snap.Repo.Owner,
			Name:              snap.Repo.Name,
			DevOwner:          optionalString(snap.Repo.DevOwner),
			Team:              optionalString(snap.Repo.Team),
			DefaultBranch:     snap.DefaultBranch,
			LastCommitAt:      snap.LastCommitAt,
			Commits24h:        optionalCount(snap.Commits24h),
			Commits7d:         optionalCount(snap.Commits7d),
			CIStatus:          string(snap.CIStatus),
			CIConclusion:      optionalString(snap.CIConclusion),
			TestsPresent:      snap.TestsPresent,
			ReadmePresent:     snap.ReadmePresent,
			StatusRYG:         string(snap.StatusRYG),
			StatusExplanation: snap.StatusExplanation,
		}
		if len(snap.TopFiles24h) > 0 {
			joined := strings.Join(snap.TopFiles24h, "|")
			row.TopFiles24h = &joined
		}
		if snap.LatestTag != nil {
			row.LatestRelease = snap.LatestTag
		} else if snap.LatestRelease != nil {
			row.LatestRelease = snap.LatestRelease
		}
		if len(snap.RiskFlags) > 0 {
			ids := make([]string, 0, len(snap.RiskFlags))
			for _, flag := range snap.RiskFlags {
				ids = append(ids, flag.ID)
			}
			joined := strings.Join(ids, "|")
			row.RiskFlagIDs = &joined
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteSnapshotsParquet writes snapshot rows to a Parquet file.
func WriteSnapshotsParquet(rows []SnapshotRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the SnapshotRow struct tags
	writer := parquet.NewGenericWriter[SnapshotRow](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// optionalString turns an empty string into a null column value.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalCount narrows an optional int for column storage.
func optionalCount(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}
