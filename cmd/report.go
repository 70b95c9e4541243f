package cmd

import (
	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/spf13/cobra"
)

// reportCmd reads stored snapshots without touching the GitHub API.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report on stored health snapshots",
	Long: `Query the persistence backend for snapshots written by earlier runs.

Reports never call the GitHub API; they only read what previous runs
persisted. Honors the global --output flag for table, CSV, JSON or parquet
output.

Subcommands:
  latest - Newest snapshot per tracked repo
  weekly - All snapshots in the report window (default: last 7 days)

Examples:
  # Current portfolio health at a glance
  repopulse report latest

  # Export a week of history for analytics
  repopulse report weekly --output parquet --output-file weekly.parquet`,
}

// reportLatestCmd shows the newest snapshot per repo.
var reportLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the newest stored snapshot per repo",
	Long: `Show the most recent snapshot for every tracked repository, across
all runs.

Examples:
  repopulse report latest
  repopulse report latest --output csv --output-file latest.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteLatestReport(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build latest report", err)
		}
	},
}

// reportWeeklyCmd shows all snapshots within the report window.
var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Show all snapshots captured in the report window",
	Long: `Show every snapshot captured at or after the window start. The window
defaults to the last seven days; override it with --since.

Examples:
  repopulse report weekly
  repopulse report weekly --since 2026-08-01 --output parquet --output-file history.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWeeklyReport(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build weekly report", err)
		}
	},
}
