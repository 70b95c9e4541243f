package contract

import (
	"fmt"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// Default values for configuration.
const (
	DefaultMaxAttempts   = 5
	DefaultWorkers       = 4
	DefaultFailuresShown = 10
	DefaultReposPath     = "configs/repos.yaml"
	DefaultSignalsPath   = "configs/signals.yaml"
	DefaultRulesPath     = "configs/rules.yaml"
)

// TimeFormat is the default time representation.
var TimeFormat = time.RFC3339

// Config holds the validated runtime configuration for a batch run.
// Fields that are set directly by simple flags remain the same (e.g.,
// MaxAttempts). Fields that require parsing (dates, booleans) are set by
// ProcessAndValidate after flags are read.
type Config struct {
	ReposPath   string // Path to the portfolio document (repos.yaml)
	SignalsPath string // Path to the collector config (signals.yaml)
	RulesPath   string // Path to the scoring rules (rules.yaml)

	Token       string // GitHub token; empty means unauthenticated
	MaxAttempts int    // Attempt budget per API call
	Workers     int    // Concurrent repos processed per run

	Backend   schema.DatabaseBackend // Persistence backend
	DBConnect string                 // Connection string for mysql/postgresql

	Output     schema.OutputMode // Output format for reports
	OutputFile string            // Optional path to write output to
	Color      bool              // Colored status labels in table output
	Width      int               // Terminal width override (0 = auto-detect)

	Since            time.Time // Lower bound for report queries
	MaxFailuresShown int       // Cap on failing repos listed in the summary
}

// ConfigRawInput holds the raw string inputs from flags that require
// parsing/validation. These fields are bound to viper keys in cmd.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	ReposPath   string `mapstructure:"repos-config"`
	SignalsPath string `mapstructure:"signals-config"`
	RulesPath   string `mapstructure:"rules-config"`
	Token       string `mapstructure:"token"`
	MaxAttempts int    `mapstructure:"max-attempts"`
	Workers     int    `mapstructure:"workers"`
	Backend     string `mapstructure:"backend"`
	DBConnect   string `mapstructure:"db-connect"`
	Output      string `mapstructure:"output"`
	OutputFile  string `mapstructure:"output-file"`
	ColorStr    string `mapstructure:"color"`
	Width       int    `mapstructure:"width"`

	// --- Fields from reportCmd.PersistentFlags() ---
	SinceStr string `mapstructure:"since"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// --- 1. Config document paths ---
	cfg.ReposPath = input.ReposPath
	if cfg.ReposPath == "" {
		cfg.ReposPath = DefaultReposPath
	}
	cfg.SignalsPath = input.SignalsPath
	if cfg.SignalsPath == "" {
		cfg.SignalsPath = DefaultSignalsPath
	}
	cfg.RulesPath = input.RulesPath
	if cfg.RulesPath == "" {
		cfg.RulesPath = DefaultRulesPath
	}

	// --- 2. API client settings ---
	cfg.Token = input.Token
	cfg.MaxAttempts = input.MaxAttempts
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("max-attempts must be greater than 0 (received %d)", input.MaxAttempts)
	}
	cfg.Workers = input.Workers
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}

	// --- 3. Persistence backend ---
	cfg.Backend = schema.DatabaseBackend(input.Backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", input.Backend)
	}
	if err := ValidateDatabaseConnectionString(cfg.Backend, input.DBConnect); err != nil {
		return err
	}
	cfg.DBConnect = input.DBConnect

	// --- 4. Output settings ---
	cfg.Output = schema.OutputMode(input.Output)
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colorEnabled, err := ParseBoolString(input.ColorStr)
	if err != nil {
		return fmt.Errorf("invalid color value: %w", err)
	}
	cfg.Color = colorEnabled

	// --- 5. Report window ---
	if input.SinceStr != "" {
		t, err := time.Parse("2006-01-02", input.SinceStr)
		if err != nil {
			t, err = time.Parse(TimeFormat, input.SinceStr)
			if err != nil {
				return fmt.Errorf("invalid since date '%s' (expected YYYY-MM-DD or RFC3339)", input.SinceStr)
			}
		}
		cfg.Since = t
	}

	cfg.MaxFailuresShown = DefaultFailuresShown

	return nil
}
