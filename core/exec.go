package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/core/collect"
	"github.com/huangsam/repopulse/core/scoring"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/githubclient"
	"github.com/huangsam/repopulse/internal/outwriter"
	"github.com/huangsam/repopulse/schema"
)

// ExecuteBatchRun is the main entry point for the 'run' command. It loads the
// three config documents, assembles the collector pipeline and the scoring
// engine, processes the whole portfolio and prints snapshots plus summary.
func ExecuteBatchRun(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	repos, err := schema.LoadPortfolio(cfg.ReposPath)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		return fmt.Errorf("portfolio %s lists no repos", cfg.ReposPath)
	}

	// Keep the registry current so repos/report commands see the same set.
	if _, err := mgr.Repos().ImportPortfolio(repos); err != nil {
		return fmt.Errorf("failed to import portfolio: %w", err)
	}

	collectorsCfg, err := schema.LoadCollectorsConfig(cfg.SignalsPath)
	if err != nil {
		return err
	}
	rulesCfg, err := schema.LoadRulesConfig(cfg.RulesPath)
	if err != nil {
		return err
	}
	rules, err := scoring.NewRuleSet(rulesCfg)
	if err != nil {
		return fmt.Errorf("invalid rules config %s: %w", cfg.RulesPath, err)
	}

	client := githubclient.New(cfg.Token, githubclient.WithMaxAttempts(cfg.MaxAttempts))
	collectors := collect.DefaultChain(client, collectorsCfg)
	runner := NewRunner(cfg, collectors, scoring.NewEngine(rules), mgr)

	result, err := runner.Execute(ctx, repos)
	if err != nil {
		return err
	}

	snapshots := make([]schema.RepoSnapshot, 0, len(result.Snapshots))
	for _, snap := range result.Snapshots {
		snapshots = append(snapshots, *snap)
	}

	writer := outwriter.NewOutWriter()
	if err := writer.WriteSnapshots(snapshots, cfg); err != nil {
		return err
	}
	return writer.WriteSummary(&result.Summary, cfg)
}

// ExecuteLatestReport prints the newest stored snapshot per tracked repo.
func ExecuteLatestReport(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	snapshots, err := mgr.Snapshots().LatestSnapshots()
	if err != nil {
		return fmt.Errorf("failed to load latest snapshots: %w", err)
	}
	return outwriter.NewOutWriter().WriteSnapshots(snapshots, cfg)
}

// ExecuteWeeklyReport prints all snapshots captured within the report window.
// The window defaults to the last seven days when --since is not given.
func ExecuteWeeklyReport(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	since := cfg.Since
	if since.IsZero() {
		since = time.Now().UTC().AddDate(0, 0, -7)
	}
	snapshots, err := mgr.Snapshots().SnapshotsSince(since)
	if err != nil {
		return fmt.Errorf("failed to load snapshots since %s: %w", since.Format(contract.TimeFormat), err)
	}
	return outwriter.NewOutWriter().WriteSnapshots(snapshots, cfg)
}
