package scoring

import (
	"time"

	"github.com/huangsam/repopulse/schema"
)

// evalInput is the set of precomputed facts the conditions evaluate against.
// Derived once per repo so every condition in every tier sees the same view.
type evalInput struct {
	DaysSinceCommit      *int
	CIStatus             schema.CIStatus
	CIConclusion         string
	RequiredFilesMissing []string
	Commits7d            int
	HasTagOrRelease      bool
}

// Engine evaluates parsed rules against a signal accumulator. Evaluation is
// deterministic: day arithmetic uses the accumulator's capture timestamp,
// never the wall clock, so replaying a run yields the same snapshot.
type Engine struct {
	rules *RuleSet
}

// NewEngine returns an engine over a parsed rule set.
func NewEngine(rules *RuleSet) *Engine {
	return &Engine{rules: rules}
}

// Evaluate scores one enriched accumulator into an immutable snapshot.
// Tiers are checked red before yellow with first-match-wins within a tier;
// a repo matching nothing is green. Risk rules evaluate after the tiers and
// never influence the RYG status.
func (e *Engine) Evaluate(sig *schema.Signals) *schema.RepoSnapshot {
	input := buildEvalInput(sig)

	status := schema.GreenStatus
	explanation := "Meets configured freshness, CI and docs criteria."

	if matched, why := matchAny(e.rules.Red, input); matched {
		status = schema.RedStatus
		explanation = why
	} else if matched, why := matchAny(e.rules.Yellow, input); matched {
		status = schema.YellowStatus
		explanation = why
	}

	snap := snapshotFromSignals(sig)
	snap.StatusRYG = status
	snap.StatusExplanation = explanation
	snap.RiskFlags = e.evaluateRiskRules(sig, input)
	return snap
}

// matchAny returns the first matching condition's explanation within a tier.
func matchAny(conditions []Condition, input *evalInput) (bool, string) {
	for _, cond := range conditions {
		if matched, why := cond.Match(input); matched {
			return true, why
		}
	}
	return false, ""
}

// evaluateRiskRules fires every matching risk rule with its evidence.
func (e *Engine) evaluateRiskRules(sig *schema.Signals, input *evalInput) []schema.RiskFlag {
	var flags []schema.RiskFlag
	for _, rule := range e.rules.RiskRules {
		if !riskRuleMatches(rule.When, input) {
			continue
		}
		flags = append(flags, schema.RiskFlag{
			ID:       rule.ID,
			Label:    rule.Label,
			Severity: rule.Severity,
			Message:  rule.Message,
			Evidence: riskEvidence(rule.When, sig, input),
		})
	}
	return flags
}

// riskRuleMatches checks every clause of a when-object conjunctively.
func riskRuleMatches(when RiskWhen, input *evalInput) bool {
	if when.Commits7dGTE != nil && input.Commits7d < *when.Commits7dGTE {
		return false
	}
	if when.CheckTagRelease {
		has := input.HasTagOrRelease
		if when.Negate {
			has = !has
		}
		if !has {
			return false
		}
	}
	return true
}

// riskEvidence records the observed values behind each clause that matched.
func riskEvidence(when RiskWhen, sig *schema.Signals, input *evalInput) []schema.SignalEvidence {
	var evidence []schema.SignalEvidence
	if when.Commits7dGTE != nil {
		evidence = append(evidence, schema.SignalEvidence{
			Key:         "commits_7d",
			Value:       input.Commits7d,
			Source:      "collector/commits",
			CollectedAt: sig.CapturedAt,
		})
	}
	if when.CheckTagRelease {
		evidence = append(evidence, schema.SignalEvidence{
			Key:         "has_tag_or_release",
			Value:       input.HasTagOrRelease,
			Source:      "collector/releases",
			CollectedAt: sig.CapturedAt,
		})
	}
	return evidence
}

// buildEvalInput derives the condition-facing facts from raw signals.
func buildEvalInput(sig *schema.Signals) *evalInput {
	input := &evalInput{
		CIStatus:             sig.CIStatus,
		CIConclusion:         sig.CIConclusion,
		RequiredFilesMissing: sig.RequiredFilesMissing,
		Commits7d:            schema.IntOrZero(sig.Commits7d),
		HasTagOrRelease:      sig.ReleaseLabel() != nil,
	}
	if sig.CIStatus == "" {
		input.CIStatus = schema.CIUnknown
	}
	if sig.LastCommitAt != nil {
		days := int(sig.CapturedAt.Sub(*sig.LastCommitAt) / (24 * time.Hour))
		if days < 0 {
			days = 0
		}
		input.DaysSinceCommit = &days
	}
	return input
}

// snapshotFromSignals copies the collected fields into a snapshot shell.
// An unset CI status surfaces as unknown so consumers never see an empty one.
func snapshotFromSignals(sig *schema.Signals) *schema.RepoSnapshot {
	ciStatus := sig.CIStatus
	if ciStatus == "" {
		ciStatus = schema.CIUnknown
	}
	return &schema.RepoSnapshot{
		RunID:                sig.RunID,
		CapturedAt:           sig.CapturedAt,
		Repo:                 sig.Repo,
		DefaultBranch:        sig.DefaultBranch,
		LastCommitAt:         sig.LastCommitAt,
		Commits24h:           sig.Commits24h,
		Commits7d:            sig.Commits7d,
		TopFiles24h:          sig.TopFiles24h,
		CIStatus:             ciStatus,
		CIConclusion:         sig.CIConclusion,
		CIUpdatedAt:          sig.CIUpdatedAt,
		LatestTag:            sig.LatestTag,
		LatestRelease:        sig.LatestRelease,
		TestsPresent:         sig.TestsPresent,
		ReadmePresent:        sig.ReadmePresent,
		RequiredFilesMissing: sig.RequiredFilesMissing,
		GitignorePresent:     sig.GitignorePresent,
		EnvNotTracked:        sig.EnvNotTracked,
	}
}
