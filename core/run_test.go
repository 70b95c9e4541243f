package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/repopulse/core/collect"
	"github.com/huangsam/repopulse/core/scoring"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/githubclient"
	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCollector applies a canned mutation, or fails for selected repos.
type fakeCollector struct {
	name    string
	enabled bool
	failFor map[string]error
	apply   func(sig *schema.Signals)
}

func (f *fakeCollector) Name() string  { return f.name }
func (f *fakeCollector) Enabled() bool { return f.enabled }

func (f *fakeCollector) Enrich(_ context.Context, sig *schema.Signals) error {
	if err, ok := f.failFor[sig.Repo.Slug()]; ok {
		return err
	}
	if f.apply != nil {
		f.apply(sig)
	}
	return nil
}

// memoryStores is an in-memory StoreManager good enough for orchestration tests.
type memoryStores struct {
	mu         sync.Mutex
	runs       []*schema.RunRecord
	snapshots  []*schema.RepoSnapshot
	upsertErr  map[string]error
	finishedID string
}

func newMemoryStores() *memoryStores {
	return &memoryStores{upsertErr: map[string]error{}}
}

func (m *memoryStores) Repos() contract.RepoStore         { return nil }
func (m *memoryStores) Runs() contract.RunStore           { return m }
func (m *memoryStores) Snapshots() contract.SnapshotStore { return m }
func (m *memoryStores) Close() error                      { return nil }

func (m *memoryStores) StartRun(apiMode string, configHashes map[string]string) (*schema.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := &schema.RunRecord{
		RunID:      fmt.Sprintf("run-%d", len(m.runs)+1),
		StartedAt:  time.Now().UTC(),
		APIMode:    apiMode,
		ConfigHash: configHashes,
	}
	m.runs = append(m.runs, run)
	return run, nil
}

func (m *memoryStores) FinishRun(runID string, failures []schema.RepoFailure, outputs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishedID = runID
	for _, run := range m.runs {
		if run.RunID == runID {
			now := time.Now().UTC()
			run.FinishedAt = &now
			run.Failures = failures
			run.Outputs = outputs
		}
	}
	return nil
}

func (m *memoryStores) ListRuns(int) ([]schema.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.RunRecord, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		out = append(out, *m.runs[i])
	}
	return out, nil
}

func (m *memoryStores) UpsertSnapshot(snap *schema.RepoSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.upsertErr[snap.Repo.Slug()]; ok {
		return err
	}
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *memoryStores) LatestSnapshots() ([]schema.RepoSnapshot, error) { return nil, nil }

func (m *memoryStores) SnapshotsSince(time.Time) ([]schema.RepoSnapshot, error) { return nil, nil }

func testRunnerConfig() *contract.Config {
	return &contract.Config{
		ReposPath:   "configs/repos.yaml",
		SignalsPath: "configs/signals.yaml",
		RulesPath:   "configs/rules.yaml",
		MaxAttempts: 5,
		Workers:     3,
	}
}

func emptyEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	rs, err := scoring.NewRuleSet(&schema.RulesConfig{})
	require.NoError(t, err)
	return scoring.NewEngine(rs)
}

func portfolio(n int) []schema.RepoRef {
	repos := make([]schema.RepoRef, 0, n)
	for i := range n {
		repos = append(repos, schema.RepoRef{
			Owner: "octo",
			Name:  fmt.Sprintf("repo-%02d", i),
		})
	}
	return repos
}

func TestExecuteIsolatesRepoFailures(t *testing.T) {
	stores := newMemoryStores()
	collectors := []collect.Collector{
		&fakeCollector{
			name:    "commits",
			enabled: true,
			failFor: map[string]error{
				"octo/repo-03": &githubclient.TerminalError{StatusCode: 404, Path: "/repos/octo/repo-03"},
			},
		},
	}
	runner := NewRunner(testRunnerConfig(), collectors, emptyEngine(t), stores)

	result, err := runner.Execute(context.Background(), portfolio(8))
	require.NoError(t, err)

	assert.Equal(t, 8, result.Summary.TotalRepos)
	assert.Equal(t, 7, result.Summary.SnapshotsWritten)
	assert.Len(t, result.Snapshots, 7)
	require.Len(t, result.Summary.Failures, 1)
	assert.Equal(t, "octo/repo-03", result.Summary.Failures[0].Repo)
	assert.Contains(t, result.Summary.Failures[0].Error, "commits")
	assert.Equal(t, map[string]int{"terminal": 1}, result.Summary.FailuresByKind)
	assert.Equal(t, result.Run.RunID, stores.finishedID)
}

func TestExecuteSharesCaptureTimestamp(t *testing.T) {
	stores := newMemoryStores()
	runner := NewRunner(testRunnerConfig(), nil, emptyEngine(t), stores)

	result, err := runner.Execute(context.Background(), portfolio(5))
	require.NoError(t, err)
	require.Len(t, result.Snapshots, 5)

	captured := result.Snapshots[0].CapturedAt
	for _, snap := range result.Snapshots {
		assert.Equal(t, captured, snap.CapturedAt)
		assert.Equal(t, result.Run.RunID, snap.RunID)
	}
}

func TestExecuteSkipsDisabledCollectors(t *testing.T) {
	stores := newMemoryStores()
	var called bool
	collectors := []collect.Collector{
		&fakeCollector{
			name:    "actions",
			enabled: false,
			apply:   func(*schema.Signals) { called = true },
		},
	}
	runner := NewRunner(testRunnerConfig(), collectors, emptyEngine(t), stores)

	_, err := runner.Execute(context.Background(), portfolio(1))
	require.NoError(t, err)
	assert.False(t, called)
}

func TestExecuteSortsSnapshotsBySlug(t *testing.T) {
	stores := newMemoryStores()
	runner := NewRunner(testRunnerConfig(), nil, emptyEngine(t), stores)

	result, err := runner.Execute(context.Background(), portfolio(10))
	require.NoError(t, err)

	for i := 1; i < len(result.Snapshots); i++ {
		prev := result.Snapshots[i-1].Repo.Slug()
		curr := result.Snapshots[i].Repo.Slug()
		assert.Less(t, prev, curr)
	}
}

func TestExecuteCountsPersistFailures(t *testing.T) {
	stores := newMemoryStores()
	stores.upsertErr["octo/repo-00"] = errors.New("disk full")
	runner := NewRunner(testRunnerConfig(), nil, emptyEngine(t), stores)

	result, err := runner.Execute(context.Background(), portfolio(2))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.SnapshotsWritten)
	require.Len(t, result.Summary.Failures, 1)
	assert.Contains(t, result.Summary.Failures[0].Error, "persist")
	assert.Equal(t, map[string]int{"persist": 1}, result.Summary.FailuresByKind)
}

func TestExecuteRecordsAPIMode(t *testing.T) {
	stores := newMemoryStores()
	cfg := testRunnerConfig()
	cfg.Token = "ghp_example"
	runner := NewRunner(cfg, nil, emptyEngine(t), stores)

	result, err := runner.Execute(context.Background(), portfolio(1))
	require.NoError(t, err)
	assert.Equal(t, "token", result.Run.APIMode)
}
