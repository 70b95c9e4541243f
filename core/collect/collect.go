// Package collect has the per-repository signal enrichment stages.
//
// Each collector is a stateless stage that reads from the API client and
// writes the signal fields it owns into the shared accumulator. Collectors
// never retry (the client does) and never surface expected absence as an
// error: a 404 on an optional probe becomes a typed negative signal.
package collect

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// Collector is one enrichment stage of the pipeline.
type Collector interface {
	// Name identifies the stage in failure messages and evidence sources.
	Name() string

	// Enabled reports whether the stage should run. Disabled stages are
	// skipped by the orchestrator.
	Enabled() bool

	// Enrich reads from the API and extends sig with the fields this
	// collector owns. An error aborts processing of the current repo only.
	Enrich(ctx context.Context, sig *schema.Signals) error
}

// DefaultChain returns all collectors in their fixed execution order.
// The commits collector runs first because later stages depend on the
// default branch it resolves.
func DefaultChain(api contract.APIClient, cfg *schema.CollectorsConfig) []Collector {
	return []Collector{
		NewCommitsCollector(api, cfg.Collection.Commits),
		NewActionsCollector(api, cfg.Collection.Actions),
		NewReleasesCollector(api, cfg.Collection.Releases),
		NewReadmeCollector(api, cfg.Collection.Readme),
		NewTreeScanCollector(api, cfg.Collection.TreeScan),
	}
}
