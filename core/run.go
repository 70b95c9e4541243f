// Package core orchestrates batch runs: it fans repos out to workers, drives
// the collector pipeline for each one, scores the gathered signals and hands
// snapshots to the persistence layer.
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/repopulse/core/collect"
	"github.com/huangsam/repopulse/core/scoring"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/githubclient"
	"github.com/huangsam/repopulse/schema"
)

// RunResult holds everything a run produced: the bookkeeping record, the
// scored snapshots sorted by repo slug, and the end-of-run counters.
type RunResult struct {
	Run       *schema.RunRecord
	Snapshots []*schema.RepoSnapshot
	Summary   schema.RunSummary
}

// Runner executes one batch run over a portfolio of repos.
type Runner struct {
	cfg        *contract.Config
	collectors []collect.Collector
	engine     *scoring.Engine
	mgr        contract.StoreManager
	now        func() time.Time
}

// NewRunner assembles a runner from validated configuration and the already
// constructed pipeline pieces.
func NewRunner(cfg *contract.Config, collectors []collect.Collector, engine *scoring.Engine, mgr contract.StoreManager) *Runner {
	return &Runner{
		cfg:        cfg,
		collectors: collectors,
		engine:     engine,
		mgr:        mgr,
		now:        time.Now,
	}
}

// Execute processes every repo in the portfolio. Repos are independent: a
// failure in one is recorded and never aborts the others. Only run-level
// problems (starting or finishing the run record) return an error.
func (r *Runner) Execute(ctx context.Context, repos []schema.RepoRef) (*RunResult, error) {
	started := r.now()

	// --- 1. Open the run record ---
	apiMode := "no-token"
	if r.cfg.Token != "" {
		apiMode = "token"
	}
	run, err := r.mgr.Runs().StartRun(apiMode, r.configHashes())
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	// All snapshots of a run share one capture timestamp so that staleness
	// arithmetic is identical across the portfolio.
	capturedAt := started.UTC()

	// --- 2. Fan repos out to the worker pool ---
	type repoOutcome struct {
		snapshot *schema.RepoSnapshot
		failure  *schema.RepoFailure
		kind     string
	}

	repoCh := make(chan schema.RepoRef, len(repos))
	outcomeCh := make(chan repoOutcome, len(repos))
	var wg sync.WaitGroup

	for range r.cfg.Workers {
		wg.Go(func() {
			for repo := range repoCh {
				snap, err := r.processRepo(ctx, repo, run.RunID, capturedAt)
				if err != nil {
					outcomeCh <- repoOutcome{
						failure: &schema.RepoFailure{
							Repo:  repo.Slug(),
							Error: err.Error(),
						},
						kind: classifyFailure(err),
					}
					continue
				}
				outcomeCh <- repoOutcome{snapshot: snap}
			}
		})
	}

	for _, repo := range repos {
		repoCh <- repo
	}
	close(repoCh)
	wg.Wait()
	close(outcomeCh)

	// --- 3. Collect outcomes ---
	var snapshots []*schema.RepoSnapshot
	var failures []schema.RepoFailure
	failuresByKind := make(map[string]int)
	for outcome := range outcomeCh {
		if outcome.failure != nil {
			failures = append(failures, *outcome.failure)
			failuresByKind[outcome.kind]++
			continue
		}
		snapshots = append(snapshots, outcome.snapshot)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Repo.Slug() < snapshots[j].Repo.Slug()
	})
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Repo < failures[j].Repo
	})

	// --- 4. Close the run record ---
	if err := r.mgr.Runs().FinishRun(run.RunID, failures, r.plannedOutputs()); err != nil {
		return nil, fmt.Errorf("failed to finish run %s: %w", run.RunID, err)
	}

	return &RunResult{
		Run:       run,
		Snapshots: snapshots,
		Summary: schema.RunSummary{
			RunID:            run.RunID,
			TotalRepos:       len(repos),
			SnapshotsWritten: len(snapshots),
			Failures:         failures,
			FailuresByKind:   failuresByKind,
			Duration:         r.now().Sub(started),
		},
	}, nil
}

// processRepo runs the collector chain and the scoring engine for one repo,
// then persists the snapshot. Any error here fails only this repo.
func (r *Runner) processRepo(ctx context.Context, repo schema.RepoRef, runID string, capturedAt time.Time) (*schema.RepoSnapshot, error) {
	sig := &schema.Signals{
		Repo:       repo,
		RunID:      runID,
		CapturedAt: capturedAt,
	}

	for _, collector := range r.collectors {
		if !collector.Enabled() {
			continue
		}
		if err := collector.Enrich(ctx, sig); err != nil {
			return nil, fmt.Errorf("%s: %w", collector.Name(), err)
		}
	}

	snap := r.engine.Evaluate(sig)
	if err := r.mgr.Snapshots().UpsertSnapshot(snap); err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	return snap, nil
}

// configHashes fingerprints the three config documents for the run record.
func (r *Runner) configHashes() map[string]string {
	return map[string]string{
		"repos":   contract.FileHash(r.cfg.ReposPath),
		"signals": contract.FileHash(r.cfg.SignalsPath),
		"rules":   contract.FileHash(r.cfg.RulesPath),
	}
}

// plannedOutputs records where report output will land, when configured.
func (r *Runner) plannedOutputs() map[string]string {
	if r.cfg.OutputFile == "" {
		return nil
	}
	return map[string]string{string(r.cfg.Output): r.cfg.OutputFile}
}

// classifyFailure buckets a repo failure for the end-of-run counters. Typed
// client errors map to their category; anything else falls back to the token
// before the first colon, which is the failing collector's name.
func classifyFailure(err error) string {
	var terminal *githubclient.TerminalError
	var rateLimited *githubclient.RateLimitedError
	var transient *githubclient.TransientError
	switch {
	case errors.As(err, &terminal):
		return "terminal"
	case errors.As(err, &rateLimited):
		return "rate_limited"
	case errors.As(err, &transient):
		return "transient"
	}
	message := err.Error()
	if idx := strings.Index(message, ":"); idx > 0 {
		return strings.TrimSpace(strings.ToLower(message[:idx]))
	}
	return "unknown"
}
