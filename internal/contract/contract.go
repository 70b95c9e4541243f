// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// APIClient defines the hosting-API reads that collectors depend on.
// This allows the collector pipeline to be tested without network access.
// Every method either returns a payload or one of the githubclient typed
// errors; only the client itself retries.
type APIClient interface {
	// Repo returns repository metadata, including the default branch.
	Repo(ctx context.Context, owner, name string) (*schema.RepoMeta, error)

	// ListCommits returns a commit listing for a branch, newest-first.
	ListCommits(ctx context.Context, owner, name, branch string, since time.Time, perPage int) ([]schema.Commit, error)

	// CommitDetail returns a single commit including its file list.
	CommitDetail(ctx context.Context, owner, name, sha string) (*schema.CommitDetail, error)

	// LatestWorkflowRun returns the most recent Actions run, or nil when
	// workflows exist but have never run.
	LatestWorkflowRun(ctx context.Context, owner, name string) (*schema.WorkflowRun, error)

	// LatestTag returns the most recent tag, or nil when the repo has none.
	LatestTag(ctx context.Context, owner, name string) (*schema.Tag, error)

	// LatestRelease returns the latest formal release.
	LatestRelease(ctx context.Context, owner, name string) (*schema.Release, error)

	// PathExists probes a repo-root path; expected absence is (false, nil).
	PathExists(ctx context.Context, owner, name, filePath string) (bool, error)

	// Contents returns the contents-API record for a single file.
	Contents(ctx context.Context, owner, name, filePath string) (*schema.Contents, error)

	// Tree returns the recursive file tree for a ref.
	Tree(ctx context.Context, owner, name, ref string) (*schema.Tree, error)
}

// RepoStore defines the repo registry persistence contract.
type RepoStore interface {
	// ImportPortfolio upserts all repos from a portfolio document and
	// returns the number of rows touched. Existing rows keep their
	// active flag.
	ImportPortfolio(repos []schema.RepoRef) (int, error)

	// AddRepo inserts a single repo, ignoring conflicts on (owner, name).
	AddRepo(repo schema.RepoRef) error

	// ListRepos returns tracked repos; activeOnly excludes deactivated ones.
	ListRepos(activeOnly bool) ([]schema.RepoRef, error)
}

// RunStore defines the run bookkeeping persistence contract.
type RunStore interface {
	// StartRun inserts a run row and returns it with a fresh run id.
	StartRun(apiMode string, configHashes map[string]string) (*schema.RunRecord, error)

	// FinishRun sets the finish timestamp and persists failures/outputs.
	FinishRun(runID string, failures []schema.RepoFailure, outputs map[string]string) error

	// ListRuns returns the most recent runs, newest first. A non-positive
	// limit falls back to a small default.
	ListRuns(limit int) ([]schema.RunRecord, error)
}

// SnapshotStore defines the snapshot persistence contract.
type SnapshotStore interface {
	// UpsertSnapshot inserts or replaces a snapshot row keyed by
	// (run_id, owner, name).
	UpsertSnapshot(snap *schema.RepoSnapshot) error

	// LatestSnapshots returns the newest snapshot per tracked repo.
	LatestSnapshots() ([]schema.RepoSnapshot, error)

	// SnapshotsSince returns all snapshots captured at or after since.
	SnapshotsSince(since time.Time) ([]schema.RepoSnapshot, error)
}

// StoreManager bundles the three persistence contracts behind one handle.
type StoreManager interface {
	Repos() RepoStore
	Runs() RunStore
	Snapshots() SnapshotStore
	Close() error
}
