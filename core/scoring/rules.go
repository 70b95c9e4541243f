// Package scoring has the declarative rule-evaluation engine that turns an
// enriched signal accumulator into a health classification with evidence.
package scoring

import (
	"fmt"
	"strings"

	"github.com/huangsam/repopulse/schema"
)

// Condition is one typed RYG rule condition. Implementations are parsed
// from rules.yaml once at startup; evaluation never touches raw documents.
type Condition interface {
	// Match reports whether the condition holds for the evaluated signals
	// and returns the populated explanation when it does.
	Match(ev *evalInput) (bool, string)
}

// noCommitsInDaysGTE matches when days-since-last-commit meets the
// threshold. A repo with no commit timestamp at all matches
// unconditionally: absence of data is a risk, never a pass.
type noCommitsInDaysGTE struct {
	Threshold int
}

func (c noCommitsInDaysGTE) Match(ev *evalInput) (bool, string) {
	if ev.DaysSinceCommit == nil {
		return true, "No commit timestamp available."
	}
	days := *ev.DaysSinceCommit
	return days >= c.Threshold, fmt.Sprintf("No commits in %d days (>= %d).", days, c.Threshold)
}

// ciLatestConclusionIn matches when the observed CI conclusion is a member
// of the configured set (case-insensitive).
type ciLatestConclusionIn struct {
	Conclusions map[string]struct{}
}

func (c ciLatestConclusionIn) Match(ev *evalInput) (bool, string) {
	conclusion := strings.ToLower(ev.CIConclusion)
	_, ok := c.Conclusions[conclusion]
	return ok, fmt.Sprintf("CI conclusion is %s.", conclusion)
}

// missingRequiredFilesAny matches when the required-files-missing list is
// non-empty.
type missingRequiredFilesAny struct{}

func (missingRequiredFilesAny) Match(ev *evalInput) (bool, string) {
	return len(ev.RequiredFilesMissing) > 0,
		fmt.Sprintf("Missing required docs: %s", strings.Join(ev.RequiredFilesMissing, ", "))
}

// ciMissing matches when CI status equals none.
type ciMissing struct{}

func (ciMissing) Match(ev *evalInput) (bool, string) {
	return ev.CIStatus == schema.CINone, "CI workflow missing."
}

// ciOkOrMissingAllowed matches when CI status is success or none.
type ciOkOrMissingAllowed struct{}

func (ciOkOrMissingAllowed) Match(ev *evalInput) (bool, string) {
	ok := ev.CIStatus == schema.CISuccess || ev.CIStatus == schema.CINone
	return ok, "CI ok or not present."
}

// RiskWhen is the parsed when-clause of a churn risk rule.
type RiskWhen struct {
	Commits7dGTE    *int
	CheckTagRelease bool // when set, require a recent tag/release...
	Negate          bool // ...or its absence when negated
}

// RiskRule is one parsed churn risk rule. All matching risk rules fire;
// there is no first-match short circuit like the RYG tiers.
type RiskRule struct {
	ID       string
	Label    string
	Severity schema.HealthStatus
	Message  string
	When     RiskWhen
}

// RuleSet is a fully parsed and validated rules.yaml document.
type RuleSet struct {
	Red       []Condition
	Yellow    []Condition
	RiskRules []RiskRule
}

// NewRuleSet parses and validates a raw rules document. Condition objects
// must set exactly one known key; unknown or ambiguous objects fail fast
// so misconfigured rules never silently evaluate as false.
func NewRuleSet(cfg *schema.RulesConfig) (*RuleSet, error) {
	rs := &RuleSet{}

	var err error
	if rs.Red, err = parseConditions(cfg.RYGRules.Red.Any, "red"); err != nil {
		return nil, err
	}
	if rs.Yellow, err = parseConditions(cfg.RYGRules.Yellow.Any, "yellow"); err != nil {
		return nil, err
	}

	for i, raw := range cfg.ChurnRiskRules {
		rule, err := parseRiskRule(raw)
		if err != nil {
			return nil, fmt.Errorf("churn_risk_rules[%d]: %w", i, err)
		}
		rs.RiskRules = append(rs.RiskRules, rule)
	}
	return rs, nil
}

// parseConditions converts one any-list into typed conditions.
func parseConditions(raw []schema.RawCondition, tier string) ([]Condition, error) {
	conditions := make([]Condition, 0, len(raw))
	for i, rc := range raw {
		cond, err := parseCondition(rc)
		if err != nil {
			return nil, fmt.Errorf("ryg_rules.%s.any[%d]: %w", tier, i, err)
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

// parseCondition converts one raw condition object into its typed variant.
func parseCondition(rc schema.RawCondition) (Condition, error) {
	var conditions []Condition

	if rc.NoCommitsInDaysGTE != nil {
		if *rc.NoCommitsInDaysGTE < 0 {
			return nil, fmt.Errorf("no_commits_in_days_gte must be >= 0 (received %d)", *rc.NoCommitsInDaysGTE)
		}
		conditions = append(conditions, noCommitsInDaysGTE{Threshold: *rc.NoCommitsInDaysGTE})
	}
	if rc.CILatestConclusionIn != nil {
		if len(rc.CILatestConclusionIn) == 0 {
			return nil, fmt.Errorf("ci_latest_conclusion_in must not be empty")
		}
		set := make(map[string]struct{}, len(rc.CILatestConclusionIn))
		for _, v := range rc.CILatestConclusionIn {
			set[strings.ToLower(v)] = struct{}{}
		}
		conditions = append(conditions, ciLatestConclusionIn{Conclusions: set})
	}
	if rc.MissingRequiredFiles != nil && *rc.MissingRequiredFiles {
		conditions = append(conditions, missingRequiredFilesAny{})
	}
	if rc.CIMissing != nil && *rc.CIMissing {
		conditions = append(conditions, ciMissing{})
	}
	if rc.CIOkOrMissingAllowed != nil && *rc.CIOkOrMissingAllowed {
		conditions = append(conditions, ciOkOrMissingAllowed{})
	}

	switch len(conditions) {
	case 0:
		return nil, fmt.Errorf("condition object sets no known condition key")
	case 1:
		return conditions[0], nil
	default:
		return nil, fmt.Errorf("condition object sets %d condition keys, expected exactly 1", len(conditions))
	}
}

// parseRiskRule converts one raw churn risk rule into its typed form.
func parseRiskRule(raw schema.RawRiskRule) (RiskRule, error) {
	if raw.ID == "" {
		return RiskRule{}, fmt.Errorf("missing id")
	}

	severity := schema.HealthStatus(raw.Severity)
	if severity == "" {
		severity = schema.YellowStatus
	}
	if _, ok := schema.ValidHealthStatuses[severity]; !ok {
		return RiskRule{}, fmt.Errorf("invalid severity %q", raw.Severity)
	}

	label := raw.Label
	if label == "" {
		label = "risk"
	}
	message := raw.Message
	if message == "" {
		message = "Rule triggered."
	}

	return RiskRule{
		ID:       raw.ID,
		Label:    label,
		Severity: severity,
		Message:  message,
		When: RiskWhen{
			Commits7dGTE:    raw.When.Commits7dGTE,
			CheckTagRelease: raw.When.HasReleaseOrTagWithinDays != nil,
			Negate:          raw.When.Negate,
		},
	}, nil
}
