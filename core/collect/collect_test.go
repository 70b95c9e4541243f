package collect

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/repopulse/internal/githubclient"
	"github.com/huangsam/repopulse/schema"
)

// mockAPI implements contract.APIClient with swappable function fields.
// Unset fields answer with empty payloads, never errors.
type mockAPI struct {
	repo           func(owner, name string) (*schema.RepoMeta, error)
	listCommits    func(branch string, since time.Time, perPage int) ([]schema.Commit, error)
	commitDetail   func(sha string) (*schema.CommitDetail, error)
	latestWorkflow func() (*schema.WorkflowRun, error)
	latestTag      func() (*schema.Tag, error)
	latestRelease  func() (*schema.Release, error)
	pathExists     func(filePath string) (bool, error)
	contents       func(filePath string) (*schema.Contents, error)
	tree           func(ref string) (*schema.Tree, error)
}

func (m *mockAPI) Repo(_ context.Context, owner, name string) (*schema.RepoMeta, error) {
	if m.repo != nil {
		return m.repo(owner, name)
	}
	return &schema.RepoMeta{DefaultBranch: "main"}, nil
}

func (m *mockAPI) ListCommits(_ context.Context, _, _, branch string, since time.Time, perPage int) ([]schema.Commit, error) {
	if m.listCommits != nil {
		return m.listCommits(branch, since, perPage)
	}
	return nil, nil
}

func (m *mockAPI) CommitDetail(_ context.Context, _, _, sha string) (*schema.CommitDetail, error) {
	if m.commitDetail != nil {
		return m.commitDetail(sha)
	}
	return &schema.CommitDetail{}, nil
}

func (m *mockAPI) LatestWorkflowRun(_ context.Context, _, _ string) (*schema.WorkflowRun, error) {
	if m.latestWorkflow != nil {
		return m.latestWorkflow()
	}
	return nil, nil
}

func (m *mockAPI) LatestTag(_ context.Context, _, _ string) (*schema.Tag, error) {
	if m.latestTag != nil {
		return m.latestTag()
	}
	return nil, nil
}

func (m *mockAPI) LatestRelease(_ context.Context, _, _ string) (*schema.Release, error) {
	if m.latestRelease != nil {
		return m.latestRelease()
	}
	return nil, notFoundErr("/releases/latest")
}

func (m *mockAPI) PathExists(_ context.Context, _, _, filePath string) (bool, error) {
	if m.pathExists != nil {
		return m.pathExists(filePath)
	}
	return false, nil
}

func (m *mockAPI) Contents(_ context.Context, _, _, filePath string) (*schema.Contents, error) {
	if m.contents != nil {
		return m.contents(filePath)
	}
	return nil, notFoundErr("/contents")
}

func (m *mockAPI) Tree(_ context.Context, _, _, ref string) (*schema.Tree, error) {
	if m.tree != nil {
		return m.tree(ref)
	}
	return &schema.Tree{}, nil
}

func notFoundErr(path string) error {
	return &githubclient.TerminalError{StatusCode: http.StatusNotFound, Path: path, Message: "Not Found"}
}

func enabledCfg() schema.CollectorConfig {
	return schema.CollectorConfig{Enabled: true}
}

func newSignals() *schema.Signals {
	return &schema.Signals{
		Repo:       schema.RepoRef{Owner: "acme", Name: "widgets"},
		RunID:      "run-test",
		CapturedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func commitAt(sha string, ts time.Time) schema.Commit {
	var c schema.Commit
	c.SHA = sha
	c.Commit.Committer.Date = ts
	return c
}

func detailWithFiles(names ...string) *schema.CommitDetail {
	detail := &schema.CommitDetail{}
	for _, name := range names {
		detail.Files = append(detail.Files, struct {
			Filename string `json:"filename"`
		}{Filename: name})
	}
	return detail
}

func TestCommitsCollectorCountsAndRecency(t *testing.T) {
	captured := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	newest := captured.Add(-2 * time.Hour)

	api := &mockAPI{
		listCommits: func(branch string, since time.Time, _ int) ([]schema.Commit, error) {
			assert.Equal(t, "main", branch)
			switch {
			case since.Equal(captured.Add(-24 * time.Hour)):
				return []schema.Commit{commitAt("c1", newest)}, nil
			case since.Equal(captured.Add(-7 * 24 * time.Hour)):
				return []schema.Commit{
					commitAt("c1", newest),
					commitAt("c2", captured.Add(-3*24*time.Hour)),
				}, nil
			default:
				return nil, fmt.Errorf("unexpected since %v", since)
			}
		},
		commitDetail: func(_ string) (*schema.CommitDetail, error) {
			return detailWithFiles("main.go", "README.md"), nil
		},
	}

	sig := newSignals()
	err := NewCommitsCollector(api, enabledCfg()).Enrich(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, "main", sig.DefaultBranch)
	assert.Equal(t, 1, *sig.Commits24h)
	assert.Equal(t, 2, *sig.Commits7d)
	require.NotNil(t, sig.LastCommitAt)
	assert.Equal(t, newest, *sig.LastCommitAt)
	assert.Equal(t, []string{"main.go", "README.md"}, sig.TopFiles24h)
}

func TestCommitsCollectorStaleRepoFallback(t *testing.T) {
	old := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	api := &mockAPI{
		listCommits: func(_ string, since time.Time, perPage int) ([]schema.Commit, error) {
			if since.IsZero() {
				assert.Equal(t, 1, perPage)
				return []schema.Commit{commitAt("old", old)}, nil
			}
			return nil, nil // nothing inside either window
		},
	}

	sig := newSignals()
	err := NewCommitsCollector(api, enabledCfg()).Enrich(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, 0, *sig.Commits24h)
	assert.Equal(t, 0, *sig.Commits7d)
	require.NotNil(t, sig.LastCommitAt)
	assert.Equal(t, old, *sig.LastCommitAt)
}

func TestCommitsCollectorBranchResolutionFailureFailsRepo(t *testing.T) {
	api := &mockAPI{
		repo: func(_, _ string) (*schema.RepoMeta, error) {
			return nil, notFoundErr("/repos/acme/widgets")
		},
	}

	err := NewCommitsCollector(api, enabledCfg()).Enrich(context.Background(), newSignals())
	require.Error(t, err)
	assert.True(t, githubclient.IsNotFound(err))
}

func TestCommitsCollectorTopFilesRankingAndCap(t *testing.T) {
	captured := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var commits []schema.Commit
	for i := range 3 {
		commits = append(commits, commitAt(fmt.Sprintf("sha%d", i), captured.Add(-time.Hour)))
	}

	api := &mockAPI{
		listCommits: func(_ string, since time.Time, _ int) ([]schema.Commit, error) {
			if since.Equal(captured.Add(-24 * time.Hour)) {
				return commits, nil
			}
			return commits, nil
		},
		commitDetail: func(sha string) (*schema.CommitDetail, error) {
			if sha == "sha1" {
				return nil, notFoundErr("/commits/sha1") // degrade, not fail
			}
			names := []string{"hot.go"}
			if sha == "sha0" {
				for i := range 12 {
					names = append(names, fmt.Sprintf("file%02d.go", i))
				}
			}
			return detailWithFiles(names...), nil
		},
	}

	sig := newSignals()
	err := NewCommitsCollector(api, enabledCfg()).Enrich(context.Background(), sig)
	require.NoError(t, err)

	require.Len(t, sig.TopFiles24h, 10)
	assert.Equal(t, "hot.go", sig.TopFiles24h[0], "file touched twice ranks first")
}

func TestActionsCollectorMapping(t *testing.T) {
	tests := []struct {
		name       string
		conclusion string
		status     string
		want       schema.CIStatus
	}{
		{"success", "success", "completed", schema.CISuccess},
		{"failure", "failure", "completed", schema.CIFailure},
		{"cancelled", "cancelled", "completed", schema.CIFailure},
		{"timed out", "timed_out", "completed", schema.CIFailure},
		{"action required", "action_required", "completed", schema.CIFailure},
		{"stale", "stale", "completed", schema.CIFailure},
		{"skipped", "skipped", "completed", schema.CIFailure},
		{"neutral", "neutral", "completed", schema.CIFailure},
		{"queued", "", "queued", schema.CIUnknown},
		{"in progress", "", "in_progress", schema.CIUnknown},
		{"unrecognized", "mystery", "completed", schema.CIUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			updated := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
			api := &mockAPI{
				latestWorkflow: func() (*schema.WorkflowRun, error) {
					return &schema.WorkflowRun{
						Conclusion: tc.conclusion,
						Status:     tc.status,
						UpdatedAt:  &updated,
					}, nil
				},
			}

			sig := newSignals()
			require.NoError(t, NewActionsCollector(api, enabledCfg()).Enrich(context.Background(), sig))
			assert.Equal(t, tc.want, sig.CIStatus)
			require.NotNil(t, sig.CIUpdatedAt)
		})
	}
}

func TestActionsCollectorAbsenceAndErrors(t *testing.T) {
	t.Run("no runs at all", func(t *testing.T) {
		sig := newSignals()
		api := &mockAPI{latestWorkflow: func() (*schema.WorkflowRun, error) { return nil, nil }}
		require.NoError(t, NewActionsCollector(api, enabledCfg()).Enrich(context.Background(), sig))
		assert.Equal(t, schema.CINone, sig.CIStatus)
	})

	t.Run("actions never configured", func(t *testing.T) {
		sig := newSignals()
		api := &mockAPI{latestWorkflow: func() (*schema.WorkflowRun, error) {
			return nil, notFoundErr("/actions/runs")
		}}
		require.NoError(t, NewActionsCollector(api, enabledCfg()).Enrich(context.Background(), sig))
		assert.Equal(t, schema.CINone, sig.CIStatus, "404 is no-CI, not unknown")
	})

	t.Run("transient fetch failure degrades to unknown", func(t *testing.T) {
		sig := newSignals()
		api := &mockAPI{latestWorkflow: func() (*schema.WorkflowRun, error) {
			return nil, &githubclient.TransientError{Path: "/actions/runs", Attempts: 5, Err: fmt.Errorf("boom")}
		}}
		require.NoError(t, NewActionsCollector(api, enabledCfg()).Enrich(context.Background(), sig))
		assert.Equal(t, schema.CIUnknown, sig.CIStatus)
	})
}

func TestReleasesCollector(t *testing.T) {
	t.Run("tag and release collected", func(t *testing.T) {
		api := &mockAPI{
			latestTag:     func() (*schema.Tag, error) { return &schema.Tag{Name: "v2.1.0"}, nil },
			latestRelease: func() (*schema.Release, error) { return &schema.Release{TagName: "v2.1.0", Name: "Big"}, nil },
		}
		sig := newSignals()
		require.NoError(t, NewReleasesCollector(api, enabledCfg()).Enrich(context.Background(), sig))
		assert.Equal(t, "v2.1.0", *sig.LatestTag)
		assert.Equal(t, "v2.1.0", *sig.LatestRelease)
	})

	t.Run("release name fallback", func(t *testing.T) {
		api := &mockAPI{
			latestRelease: func() (*schema.Release, error) { return &schema.Release{Name: "Summer drop"}, nil },
		}
		sig := newSignals()
		require.NoError(t, NewReleasesCollector(api, enabledCfg()).Enrich(context.Background(), sig))
		assert.Nil(t, sig.LatestTag)
		assert.Equal(t, "Summer drop", *sig.LatestRelease)
	})

	t.Run("absence stays nil", func(t *testing.T) {
		sig := newSignals()
		require.NoError(t, NewReleasesCollector(&mockAPI{}, enabledCfg()).Enrich(context.Background(), sig))
		assert.Nil(t, sig.LatestTag)
		assert.Nil(t, sig.LatestRelease)
	})
}

func TestReadmeCollector(t *testing.T) {
	t.Run("records blob sha", func(t *testing.T) {
		api := &mockAPI{contents: func(filePath string) (*schema.Contents, error) {
			assert.Equal(t, "README.md", filePath)
			return &schema.Contents{SHA: "abc123"}, nil
		}}
		sig := newSignals()
		require.NoError(t, NewReadmeCollector(api, enabledCfg()).Enrich(context.Background(), sig))
		assert.Equal(t, "abc123", *sig.ReadmeSHA)
	})

	t.Run("missing readme stays nil", func(t *testing.T) {
		sig := newSignals()
		require.NoError(t, NewReadmeCollector(&mockAPI{}, enabledCfg()).Enrich(context.Background(), sig))
		assert.Nil(t, sig.ReadmeSHA)
	})
}

func TestTreeScanCollectorFullTree(t *testing.T) {
	api := &mockAPI{
		tree: func(ref string) (*schema.Tree, error) {
			assert.Equal(t, "main", ref)
			return &schema.Tree{Entries: []schema.TreeEntry{
				{Path: "README.md", Type: "blob"},
				{Path: "pkg/thing.go", Type: "blob"},
				{Path: "pkg/thing_test.go", Type: "blob"},
				{Path: ".gitignore", Type: "blob"},
				{Path: ".env", Type: "blob"},
				{Path: "pkg", Type: "tree"},
			}}, nil
		},
	}

	sig := newSignals()
	sig.DefaultBranch = "main"
	require.NoError(t, NewTreeScanCollector(api, enabledCfg()).Enrich(context.Background(), sig))

	assert.True(t, *sig.TestsPresent)
	assert.True(t, *sig.ReadmePresent)
	assert.Equal(t, []string{"LICENSE"}, sig.RequiredFilesMissing)
	assert.True(t, *sig.GitignorePresent)
	assert.False(t, *sig.EnvNotTracked, "tracked .env is the risk state")
	assert.True(t, sig.HygieneCollected)
	assert.False(t, sig.TreeTruncated)
}

func TestTreeScanCollectorTruncatedFallsBackToProbes(t *testing.T) {
	probed := map[string]bool{}
	api := &mockAPI{
		tree: func(_ string) (*schema.Tree, error) {
			return &schema.Tree{Truncated: true}, nil
		},
		pathExists: func(filePath string) (bool, error) {
			probed[filePath] = true
			switch filePath {
			case "tests", "README.md", "LICENSE":
				return true, nil
			}
			return false, nil
		},
	}

	sig := newSignals()
	sig.DefaultBranch = "main"
	require.NoError(t, NewTreeScanCollector(api, enabledCfg()).Enrich(context.Background(), sig))

	assert.True(t, sig.TreeTruncated)
	assert.True(t, *sig.TestsPresent)
	assert.True(t, *sig.ReadmePresent)
	assert.Empty(t, sig.RequiredFilesMissing)
	assert.False(t, *sig.GitignorePresent)
	assert.True(t, *sig.EnvNotTracked)
	assert.True(t, probed["tests"], "truncated tree must degrade to directory probes")
}

func TestTreeScanCollectorResolvesBranchWhenUnset(t *testing.T) {
	api := &mockAPI{
		repo: func(_, _ string) (*schema.RepoMeta, error) {
			return &schema.RepoMeta{DefaultBranch: "trunk"}, nil
		},
		tree: func(ref string) (*schema.Tree, error) {
			assert.Equal(t, "trunk", ref)
			return &schema.Tree{}, nil
		},
	}

	sig := newSignals()
	require.NoError(t, NewTreeScanCollector(api, enabledCfg()).Enrich(context.Background(), sig))
	assert.Equal(t, "trunk", sig.DefaultBranch)
}

func TestScanForTests(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  bool
	}{
		{"go test suffix", []string{"pkg/server_test.go"}, true},
		{"python test prefix", []string{"scripts/test_deploy.py"}, true},
		{"js spec suffix", []string{"src/app.spec.ts"}, true},
		{"test directory segment", []string{"tests/helper.rb"}, true},
		{"dunder tests segment", []string{"src/__tests__/app.js"}, true},
		{"plain sources", []string{"src/main.go", "docs/guide.md"}, false},
		{"blob literally named tests", []string{"tests"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			paths := make(map[string]struct{}, len(tc.paths))
			for _, p := range tc.paths {
				paths[p] = struct{}{}
			}
			assert.Equal(t, tc.want, scanForTests(paths))
		})
	}
}

func TestDefaultChainHonorsToggles(t *testing.T) {
	cfg := &schema.CollectorsConfig{}
	cfg.Collection.Commits.Enabled = true
	cfg.Collection.TreeScan.Enabled = true

	chain := DefaultChain(&mockAPI{}, cfg)
	require.Len(t, chain, 5)
	assert.Equal(t, "commits", chain[0].Name())
	assert.True(t, chain[0].Enabled())
	assert.False(t, chain[1].Enabled(), "actions disabled by config")
	assert.True(t, chain[4].Enabled())
}
