// Package schema has configs, models and shared constants for all parts of repopulse.
package schema

import (
	"fmt"
	"strings"
	"time"
)

// RepoRef identifies a tracked repository along with optional human metadata.
// It is immutable once loaded for a run; the repo registry owns it.
type RepoRef struct {
	URL      string `json:"url" yaml:"url"`
	Owner    string `json:"owner" yaml:"owner"`
	Name     string `json:"name" yaml:"name"`
	DevOwner string `json:"dev_owner_name,omitempty" yaml:"dev_owner_name,omitempty"`
	Team     string `json:"team,omitempty" yaml:"team,omitempty"`
	Active   bool   `json:"active" yaml:"-"`
}

// Slug returns the canonical "owner/name" identifier for the repo.
func (r RepoRef) Slug() string {
	return r.Owner + "/" + r.Name
}

// ParseSlug parses an "owner/name" slug into a RepoRef with a derived URL.
func ParseSlug(slug string) (RepoRef, error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("invalid repo slug %q (expected owner/name)", slug)
	}
	return RepoRef{
		URL:    "https://github.com/" + slug,
		Owner:  parts[0],
		Name:   parts[1],
		Active: true,
	}, nil
}

// Signals is the per-repository signal accumulator built up by collectors
// within one run. Each collector may only set the fields it owns (see the
// section comments); a nil pointer means "not collected", never "false/zero".
// A Signals value is scoped to a single repository and discarded after scoring.
type Signals struct {
	// Seeded by the orchestrator before any collector runs.
	Repo       RepoRef
	RunID      string
	CapturedAt time.Time

	// Owned by the commits collector.
	DefaultBranch string
	LastCommitAt  *time.Time
	Commits24h    *int
	Commits7d     *int
	TopFiles24h   []string

	// Owned by the actions collector.
	CIStatus     CIStatus // empty means the collector was disabled
	CIConclusion string
	CIUpdatedAt  *time.Time

	// Owned by the releases collector.
	LatestTag     *string
	LatestRelease *string

	// Owned by the treescan collector.
	TestsPresent         *bool
	TreeTruncated        bool
	ReadmePresent        *bool
	RequiredFilesMissing []string
	GitignorePresent     *bool
	EnvNotTracked        *bool
	HygieneCollected     bool // distinguishes "nothing missing" from "not collected"

	// Owned by the readme collector.
	ReadmeSHA           *string
	ReadmeFreshWithin7d *bool
}

// ReleaseLabel returns the preferred release identifier: the most recent tag
// name when present, else the latest release name, else nil.
func (s *Signals) ReleaseLabel() *string {
	if s.LatestTag != nil {
		return s.LatestTag
	}
	return s.LatestRelease
}

// SignalEvidence is one supporting observation attached to a risk flag.
type SignalEvidence struct {
	Key         string    `json:"key"`
	Value       any       `json:"value"`
	Source      string    `json:"source,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

// RiskFlag is an independently-evaluated observation attached to a snapshot,
// distinct from the RYG status. Immutable once created.
type RiskFlag struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	Severity HealthStatus     `json:"severity"`
	Message  string           `json:"message"`
	Evidence []SignalEvidence `json:"evidence,omitempty"`
}

// RepoSnapshot is the scored result for one repository in one run.
// It is created once by the scoring engine and never mutated afterwards;
// corrections require a new run.
type RepoSnapshot struct {
	RunID      string    `json:"run_id"`
	CapturedAt time.Time `json:"captured_at"`
	Repo       RepoRef   `json:"repo"`

	DefaultBranch string     `json:"default_branch,omitempty"`
	LastCommitAt  *time.Time `json:"last_commit_at,omitempty"`
	Commits24h    *int       `json:"commits_24h,omitempty"`
	Commits7d     *int       `json:"commits_7d,omitempty"`
	TopFiles24h   []string   `json:"top_files_24h,omitempty"`

	CIStatus     CIStatus   `json:"ci_status"`
	CIConclusion string     `json:"ci_conclusion,omitempty"`
	CIUpdatedAt  *time.Time `json:"ci_updated_at,omitempty"`

	LatestTag     *string `json:"latest_tag,omitempty"`
	LatestRelease *string `json:"latest_release,omitempty"`

	TestsPresent         *bool    `json:"tests_present,omitempty"`
	ReadmePresent        *bool    `json:"readme_present,omitempty"`
	RequiredFilesMissing []string `json:"required_files_missing,omitempty"`
	GitignorePresent     *bool    `json:"gitignore_present,omitempty"`
	EnvNotTracked        *bool    `json:"env_not_tracked,omitempty"`

	StatusRYG         HealthStatus `json:"status_ryg"`
	StatusExplanation string       `json:"status_explanation"`
	RiskFlags         []RiskFlag   `json:"risk_flags,omitempty"`
}

// RepoFailure records one repository that could not be processed in a run.
type RepoFailure struct {
	Repo  string `json:"repo"`
	Error string `json:"error"`
}

// RunRecord is the bookkeeping row for one batch execution. Append-only:
// created at run start, finalized at run end.
type RunRecord struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	APIMode    string            `json:"api_mode"` // "token" or "no-token"
	ConfigHash map[string]string `json:"config_hashes"`
	Failures   []RepoFailure     `json:"failures,omitempty"`
	Outputs    map[string]string `json:"outputs,omitempty"`
}

// RunSummary holds the end-of-run counters reported to the user.
type RunSummary struct {
	RunID            string
	TotalRepos       int
	SnapshotsWritten int
	Failures         []RepoFailure
	FailuresByKind   map[string]int
	Duration         time.Duration
}
