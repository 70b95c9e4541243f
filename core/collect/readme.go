package collect

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// ReadmeCollector enriches signals with README identity and freshness.
// It owns ReadmeSHA and ReadmeFreshWithin7d.
type ReadmeCollector struct {
	api contract.APIClient
	cfg schema.CollectorConfig
}

// NewReadmeCollector creates the README stage.
func NewReadmeCollector(api contract.APIClient, cfg schema.CollectorConfig) *ReadmeCollector {
	return &ReadmeCollector{api: api, cfg: cfg}
}

// Name identifies the stage.
func (c *ReadmeCollector) Name() string { return "readme" }

// Enabled reports whether the stage should run.
func (c *ReadmeCollector) Enabled() bool { return c.cfg.Enabled }

// Enrich records the README blob SHA so successive runs can detect edits.
// The probe is optional enrichment: a missing README or a failed lookup
// leaves the fields nil rather than failing the repo. Freshness tracking
// across runs is resolved at reporting time by comparing snapshot SHAs.
func (c *ReadmeCollector) Enrich(ctx context.Context, sig *schema.Signals) error {
	contents, err := c.api.Contents(ctx, sig.Repo.Owner, sig.Repo.Name, "README.md")
	if err != nil || contents == nil || contents.SHA == "" {
		return nil
	}
	sig.ReadmeSHA = schema.Ptr(contents.SHA)
	return nil
}
