package collect

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// topFilesLimit caps the top-changed-files ranking.
const topFilesLimit = 10

// CommitsCollector enriches signals with commit recency and churn data.
// It owns DefaultBranch, LastCommitAt, Commits24h, Commits7d, TopFiles24h.
type CommitsCollector struct {
	api contract.APIClient
	cfg schema.CollectorConfig
}

// NewCommitsCollector creates the commit activity stage.
func NewCommitsCollector(api contract.APIClient, cfg schema.CollectorConfig) *CommitsCollector {
	return &CommitsCollector{api: api, cfg: cfg}
}

// Name identifies the stage.
func (c *CommitsCollector) Name() string { return "commits" }

// Enabled reports whether the stage should run.
func (c *CommitsCollector) Enabled() bool { return c.cfg.Enabled }

// Enrich resolves the default branch and collects commit activity windows.
// Resolving the default branch is mandatory enrichment: its failure
// propagates to the orchestrator and fails the repo.
func (c *CommitsCollector) Enrich(ctx context.Context, sig *schema.Signals) error {
	owner, name := sig.Repo.Owner, sig.Repo.Name

	meta, err := c.api.Repo(ctx, owner, name)
	if err != nil {
		return fmt.Errorf("resolve default branch for %s: %w", sig.Repo.Slug(), err)
	}
	sig.DefaultBranch = meta.DefaultBranch

	now := sig.CapturedAt
	commits24h, err := c.api.ListCommits(ctx, owner, name, meta.DefaultBranch, now.Add(-24*time.Hour), schema.DefaultCommitPageSize)
	if err != nil {
		return fmt.Errorf("list 24h commits for %s: %w", sig.Repo.Slug(), err)
	}
	commits7d, err := c.api.ListCommits(ctx, owner, name, meta.DefaultBranch, now.Add(-7*24*time.Hour), schema.DefaultCommitPageSize)
	if err != nil {
		return fmt.Errorf("list 7d commits for %s: %w", sig.Repo.Slug(), err)
	}

	sig.Commits24h = schema.Ptr(len(commits24h))
	sig.Commits7d = schema.Ptr(len(commits7d))

	if len(commits7d) > 0 {
		// GitHub returns newest-first.
		sig.LastCommitAt = schema.Ptr(commits7d[0].Commit.Committer.Date)
	} else {
		// No commits in the window. Fetch the single most recent commit so
		// scoring can compute how stale the repo actually is instead of
		// reporting "no data".
		recent, err := c.api.ListCommits(ctx, owner, name, meta.DefaultBranch, time.Time{}, 1)
		if err != nil {
			return fmt.Errorf("fetch most recent commit for %s: %w", sig.Repo.Slug(), err)
		}
		if len(recent) > 0 {
			sig.LastCommitAt = schema.Ptr(recent[0].Commit.Committer.Date)
		}
	}

	sig.TopFiles24h = c.topChangedFiles(ctx, sig, commits24h)
	return nil
}

// topChangedFiles samples recent commits' file-change details and ranks
// files by how often they were touched: count descending, ties broken by
// first-seen order, truncated to the top 10. Detail fetch failures degrade
// to a partial ranking rather than failing the collector.
func (c *CommitsCollector) topChangedFiles(ctx context.Context, sig *schema.Signals, commits []schema.Commit) []string {
	maxDetails := c.cfg.MaxCommitDetails
	if maxDetails <= 0 {
		maxDetails = schema.DefaultMaxCommitDetails
	}
	if len(commits) > maxDetails {
		commits = commits[:maxDetails]
	}

	counts := make(map[string]int)
	var firstSeen []string
	for _, commit := range commits {
		detail, err := c.api.CommitDetail(ctx, sig.Repo.Owner, sig.Repo.Name, commit.SHA)
		if err != nil {
			continue
		}
		for _, f := range detail.Files {
			if f.Filename == "" {
				continue
			}
			if _, ok := counts[f.Filename]; !ok {
				firstSeen = append(firstSeen, f.Filename)
			}
			counts[f.Filename]++
		}
	}

	// Stable sort over the first-seen ordering keeps ties deterministic.
	sort.SliceStable(firstSeen, func(i, j int) bool {
		return counts[firstSeen[i]] > counts[firstSeen[j]]
	})
	if len(firstSeen) > topFilesLimit {
		firstSeen = firstSeen[:topFilesLimit]
	}
	return firstSeen
}
