package collect

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// ReleasesCollector enriches signals with the latest tag and release.
// It owns LatestTag and LatestRelease.
type ReleasesCollector struct {
	api contract.APIClient
	cfg schema.CollectorConfig
}

// NewReleasesCollector creates the release/tag stage.
func NewReleasesCollector(api contract.APIClient, cfg schema.CollectorConfig) *ReleasesCollector {
	return &ReleasesCollector{api: api, cfg: cfg}
}

// Name identifies the stage.
func (c *ReleasesCollector) Name() string { return "releases" }

// Enabled reports whether the stage should run.
func (c *ReleasesCollector) Enabled() bool { return c.cfg.Enabled }

// Enrich fetches the most recent tag and the latest formal release
// independently. A repo without releases answers 404 on the latest-release
// lookup; that is absence, not an error. Both probes are optional, so any
// other failure degrades to absence as well.
func (c *ReleasesCollector) Enrich(ctx context.Context, sig *schema.Signals) error {
	owner, name := sig.Repo.Owner, sig.Repo.Name

	if tag, err := c.api.LatestTag(ctx, owner, name); err == nil && tag != nil {
		sig.LatestTag = schema.Ptr(tag.Name)
	}

	if release, err := c.api.LatestRelease(ctx, owner, name); err == nil && release != nil {
		label := release.TagName
		if label == "" {
			label = release.Name
		}
		if label != "" {
			sig.LatestRelease = schema.Ptr(label)
		}
	}

	return nil
}
