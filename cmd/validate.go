package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/repopulse/core/scoring"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// validateSetup loads only the config document paths. Validation never needs
// a database or a token, so the full shared setup is skipped.
func validateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	cfg.ReposPath = viper.GetString("repos-config")
	cfg.SignalsPath = viper.GetString("signals-config")
	cfg.RulesPath = viper.GetString("rules-config")
	return nil
}

// validateCmd checks the three config documents without running anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the portfolio, signals and rules documents",
	Long: `Parse and validate the three config documents without touching the
GitHub API or the database.

Checks:
- repos.yaml parses and every entry has an owner and a name
- signals.yaml parses
- rules.yaml parses and compiles into a rule set (unknown or ambiguous
  condition keys are rejected)

Exits non-zero when any document is invalid, which makes this suitable as
a CI gate for config changes.

Examples:
  repopulse validate
  repopulse validate --rules-config proposed-rules.yaml`,
	PreRunE: validateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		problems := 0

		repos, err := schema.LoadPortfolio(cfg.ReposPath)
		switch {
		case err != nil:
			fmt.Printf("FAIL %s: %v\n", cfg.ReposPath, err)
			problems++
		default:
			for _, repo := range repos {
				if repo.Owner == "" || repo.Name == "" {
					fmt.Printf("FAIL %s: entry %q is missing owner or name\n", cfg.ReposPath, repo.URL)
					problems++
				}
			}
			if problems == 0 {
				fmt.Printf("OK   %s (%d repos)\n", cfg.ReposPath, len(repos))
			}
		}

		if _, err := schema.LoadCollectorsConfig(cfg.SignalsPath); err != nil {
			fmt.Printf("FAIL %s: %v\n", cfg.SignalsPath, err)
			problems++
		} else {
			fmt.Printf("OK   %s\n", cfg.SignalsPath)
		}

		rulesCfg, err := schema.LoadRulesConfig(cfg.RulesPath)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", cfg.RulesPath, err)
			problems++
		} else if _, err := scoring.NewRuleSet(rulesCfg); err != nil {
			fmt.Printf("FAIL %s: %v\n", cfg.RulesPath, err)
			problems++
		} else {
			fmt.Printf("OK   %s\n", cfg.RulesPath)
		}

		if problems > 0 {
			fmt.Printf("%d problem(s) found\n", problems)
			os.Exit(1)
		}
	},
}
