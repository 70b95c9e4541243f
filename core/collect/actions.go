package collect

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/githubclient"
	"github.com/huangsam/repopulse/schema"
)

// failureConclusions are the workflow conclusions normalized to CIFailure.
var failureConclusions = map[string]struct{}{
	"failure":         {},
	"cancelled":       {},
	"timed_out":       {},
	"action_required": {},
	"stale":           {},
	"skipped":         {},
	"neutral":         {},
}

// inFlightStatuses are run statuses with no terminal conclusion yet.
var inFlightStatuses = map[string]struct{}{
	"queued":      {},
	"in_progress": {},
}

// ActionsCollector enriches signals with CI status from GitHub Actions.
// It owns CIStatus, CIConclusion, CIUpdatedAt.
type ActionsCollector struct {
	api contract.APIClient
	cfg schema.CollectorConfig
}

// NewActionsCollector creates the CI status stage.
func NewActionsCollector(api contract.APIClient, cfg schema.CollectorConfig) *ActionsCollector {
	return &ActionsCollector{api: api, cfg: cfg}
}

// Name identifies the stage.
func (c *ActionsCollector) Name() string { return "actions" }

// Enabled reports whether the stage should run.
func (c *ActionsCollector) Enabled() bool { return c.cfg.Enabled }

// Enrich fetches the most recent workflow run and maps it to a normalized
// CI status. A 404 means Actions was never configured for the repo, which
// maps to CINone: scoring treats "no CI" differently from "CI state
// unknown". Any other fetch failure degrades to CIUnknown.
func (c *ActionsCollector) Enrich(ctx context.Context, sig *schema.Signals) error {
	run, err := c.api.LatestWorkflowRun(ctx, sig.Repo.Owner, sig.Repo.Name)
	if err != nil {
		if githubclient.IsNotFound(err) {
			sig.CIStatus = schema.CINone
		} else {
			sig.CIStatus = schema.CIUnknown
		}
		return nil
	}

	if run == nil {
		sig.CIStatus = schema.CINone
		return nil
	}

	sig.CIStatus = mapCIStatus(run.Conclusion, run.Status)
	sig.CIConclusion = run.Conclusion
	if sig.CIConclusion == "" {
		sig.CIConclusion = run.Status
	}
	sig.CIUpdatedAt = run.UpdatedAt
	return nil
}

// mapCIStatus normalizes a (conclusion, status) pair to one of the four
// CI status values.
func mapCIStatus(conclusion, status string) schema.CIStatus {
	if conclusion == "success" {
		return schema.CISuccess
	}
	if _, ok := failureConclusions[conclusion]; ok {
		return schema.CIFailure
	}
	if _, ok := inFlightStatuses[status]; ok {
		return schema.CIUnknown
	}
	return schema.CIUnknown
}
