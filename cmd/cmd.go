// Package cmd defines the command-line interface for repopulse.
package cmd

import (
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the repos subcommands to the parent repos command
	reposCmd.AddCommand(reposImportCmd)
	reposCmd.AddCommand(reposAddCmd)
	reposCmd.AddCommand(reposListCmd)

	// Add the report subcommands to the parent report command
	reportCmd.AddCommand(reportLatestCmd)
	reportCmd.AddCommand(reportWeeklyCmd)

	// Add the db subcommands to the parent db command
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbCheckCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("repos-config", contract.DefaultReposPath, "Path to the portfolio document (repos.yaml)")
	rootCmd.PersistentFlags().String("signals-config", contract.DefaultSignalsPath, "Path to the collector config (signals.yaml)")
	rootCmd.PersistentFlags().String("rules-config", contract.DefaultRulesPath, "Path to the scoring rules (rules.yaml)")
	rootCmd.PersistentFlags().String("token", "", "GitHub token (empty means unauthenticated, lower rate limits)")
	rootCmd.PersistentFlags().Int("max-attempts", contract.DefaultMaxAttempts, "Attempt budget per API call")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of repos processed concurrently")
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Persistence backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored status labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all persistent flags of reportCmd to Viper
	reportCmd.PersistentFlags().String("since", "", "Lower bound for report queries (YYYY-MM-DD or RFC3339)")
	if err := viper.BindPFlags(reportCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of dbMigrateCmd to Viper
	dbMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(dbMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding db migrate flags", err)
	}
}
