package cmd

import (
	"fmt"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/outwriter"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
)

// reposCmd manages the tracked repo registry.
var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Manage the portfolio of tracked repositories",
	Long: `Manage the registry of repositories that runs and reports operate on.

The registry lives in the persistence backend and is seeded from the
repos.yaml portfolio document. Rows keep their active flag across imports,
so deactivated repos stay deactivated when the document is re-imported.

Subcommands:
  import - Upsert every repo from the portfolio document
  add    - Track a single repo by owner/name
  list   - Show tracked repos

Examples:
  # Seed the registry from repos.yaml
  repopulse repos import

  # Track one more repo
  repopulse repos add golang/go --dev-owner platform@corp.example

  # Show everything tracked
  repopulse repos list`,
}

// reposImportCmd seeds the registry from the portfolio document.
var reposImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Upsert all repos from the portfolio document into the registry",
	Long: `Read the repos.yaml portfolio document and upsert every entry into the
repo registry. Existing rows refresh their URL, owner contact and team but
keep their active flag.

Examples:
  # Import the default portfolio
  repopulse repos import

  # Import a different document
  repopulse repos import --repos-config team-b/repos.yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		repos, err := schema.LoadPortfolio(cfg.ReposPath)
		if err != nil {
			contract.LogFatal("Cannot load portfolio", err)
		}
		count, err := storeManager.Repos().ImportPortfolio(repos)
		if err != nil {
			contract.LogFatal("Cannot import portfolio", err)
		}
		fmt.Printf("Imported %d repos from %s\n", count, cfg.ReposPath)
	},
}

// reposAddCmd tracks one repo given as owner/name.
var reposAddCmd = &cobra.Command{
	Use:   "add <owner>/<name>",
	Short: "Track a single repository",
	Long: `Add one repository to the registry without editing the portfolio
document. The argument is the owner/name slug as it appears on GitHub.

Examples:
  repopulse repos add golang/go
  repopulse repos add grafana/loki`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		repo, err := schema.ParseSlug(args[0])
		if err != nil {
			contract.LogFatal("Invalid repo slug", err)
		}
		if err := storeManager.Repos().AddRepo(repo); err != nil {
			contract.LogFatal("Cannot add repo", err)
		}
		fmt.Printf("Tracking %s\n", repo.Slug())
	},
}

// reposListCmd shows the tracked repos.
var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show tracked repositories",
	Long: `List every repository in the registry, including deactivated ones.

Honors the global --output flag, so the registry can be exported as CSV or
JSON for other tooling.

Examples:
  repopulse repos list
  repopulse repos list --output json --output-file repos.json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		repos, err := storeManager.Repos().ListRepos(false)
		if err != nil {
			contract.LogFatal("Cannot list repos", err)
		}
		if err := outwriter.NewOutWriter().WriteRepos(repos, cfg); err != nil {
			contract.LogFatal("Cannot write repo list", err)
		}
	},
}
