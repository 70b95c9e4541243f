package cmd

import (
	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/spf13/cobra"
)

// runCmd performs one batch snapshot run over the portfolio.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect signals for every repo and score its health.",
	Long: `Poll the GitHub API for every repo in the portfolio and produce one
health snapshot per repo.

For each repo the run:
- Collects commit activity, CI status, releases, docs and required files
- Evaluates the red/yellow/green rules and the churn risk rules
- Persists the snapshot to the configured backend
- Records the run itself with config hashes for reproducibility

Repos are processed concurrently and fail independently: one broken repo
never aborts the rest of the portfolio. The run finishes with a summary of
snapshots written and failures bucketed by category.

Examples:
  # Score the whole portfolio with defaults
  repopulse run

  # Authenticated run with more parallelism
  repopulse run --token $GITHUB_TOKEN --workers 8

  # Export the snapshots to CSV while persisting to sqlite
  repopulse run --output csv --output-file snapshots.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBatchRun(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run batch collection", err)
		}
	},
}
