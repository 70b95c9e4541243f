package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values for collector parameters.
const (
	DefaultMaxCommitDetails = 5
	DefaultCommitPageSize   = 100
)

// CollectorConfig is the per-collector section of signals.yaml.
type CollectorConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxCommitDetails bounds how many recent commits the commits collector
	// samples for file-change details. Zero falls back to the default.
	MaxCommitDetails int `yaml:"max_commit_details,omitempty"`
}

// CollectorsConfig is the parsed signals.yaml document. Collectors absent
// from the document default to disabled.
type CollectorsConfig struct {
	Collection struct {
		Commits  CollectorConfig `yaml:"commits"`
		Actions  CollectorConfig `yaml:"actions"`
		Releases CollectorConfig `yaml:"releases"`
		Readme   CollectorConfig `yaml:"readme"`
		TreeScan CollectorConfig `yaml:"tree_scan"`
	} `yaml:"collection"`
}

// RawCondition is one condition object from a ryg_rules any-list, exactly as
// it appears in rules.yaml. The scoring package parses it into a typed
// Condition at startup; exactly one field must be set per object.
type RawCondition struct {
	NoCommitsInDaysGTE   *int     `yaml:"no_commits_in_days_gte,omitempty"`
	CILatestConclusionIn []string `yaml:"ci_latest_conclusion_in,omitempty"`
	MissingRequiredFiles *bool    `yaml:"missing_required_files_any,omitempty"`
	CIMissing            *bool    `yaml:"ci_missing,omitempty"`
	CIOkOrMissingAllowed *bool    `yaml:"ci_ok_or_missing_allowed,omitempty"`
}

// RawRiskWhen is the when-clause of one churn risk rule.
type RawRiskWhen struct {
	Commits7dGTE              *int `yaml:"commits_7d_gte,omitempty"`
	HasReleaseOrTagWithinDays *int `yaml:"has_release_or_tag_within_days,omitempty"`
	Negate                    bool `yaml:"negate,omitempty"`
}

// RawRiskRule is one entry of the churn_risk_rules list.
type RawRiskRule struct {
	ID       string      `yaml:"id"`
	Label    string      `yaml:"label"`
	Severity string      `yaml:"severity"`
	Message  string      `yaml:"message"`
	When     RawRiskWhen `yaml:"when"`
}

// RulesConfig is the parsed rules.yaml document.
type RulesConfig struct {
	RYGRules struct {
		Red struct {
			Any []RawCondition `yaml:"any"`
		} `yaml:"red"`
		Yellow struct {
			Any []RawCondition `yaml:"any"`
		} `yaml:"yellow"`
	} `yaml:"ryg_rules"`
	ChurnRiskRules []RawRiskRule `yaml:"churn_risk_rules"`
}

// LoadCollectorsConfig reads and parses a signals.yaml document.
func LoadCollectorsConfig(path string) (*CollectorsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collectors config %s: %w", path, err)
	}
	var cfg CollectorsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse collectors config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadRulesConfig reads and parses a rules.yaml document.
func LoadRulesConfig(path string) (*RulesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules config %s: %w", path, err)
	}
	var cfg RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rules config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadPortfolio reads and parses a repos.yaml document. The document is
// either a bare list of repos or a mapping with a top-level "repos" key.
func LoadPortfolio(path string) ([]RepoRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio %s: %w", path, err)
	}

	var bare []RepoRef
	if err := yaml.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Repos []RepoRef `yaml:"repos"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio %s: %w", path, err)
	}
	return wrapped.Repos, nil
}
