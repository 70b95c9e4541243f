// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSnapshots prints repo snapshots using the configured output format.
func (ow *OutWriter) WriteSnapshots(snapshots []schema.RepoSnapshot, cfg *contract.Config) error {
	return WriteSnapshotResults(snapshots, cfg)
}

// WriteSummary prints the end-of-run summary to stdout.
func (ow *OutWriter) WriteSummary(summary *schema.RunSummary, cfg *contract.Config) error {
	return WriteRunSummary(summary, cfg)
}

// WriteRepos prints the tracked repo registry.
func (ow *OutWriter) WriteRepos(repos []schema.RepoRef, cfg *contract.Config) error {
	return WriteRepoList(repos, cfg)
}

// WriteStoreStatus prints persistence layer health information.
func (ow *OutWriter) WriteStoreStatus(status schema.StoreStatus) error {
	fmt.Printf("Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return nil
	}
	fmt.Printf("Tracked repos: %d\n", status.TotalRepos)
	fmt.Printf("Runs recorded: %d\n", status.TotalRuns)
	fmt.Printf("Snapshots stored: %d\n", status.TotalSnapshots)
	if !status.LastRunTime.IsZero() {
		fmt.Printf("Last run: %s\n", status.LastRunTime.Format(contract.TimeFormat))
	}
	return nil
}
