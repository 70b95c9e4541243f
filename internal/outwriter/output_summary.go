package outwriter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// failureMessageWidth caps failure messages in the summary listing.
const failureMessageWidth = 100

// WriteRunSummary prints the end-of-run report to stdout: totals, failure
// buckets and the first failures up to the configured cap.
func WriteRunSummary(summary *schema.RunSummary, cfg *contract.Config) error {
	return writeSummaryTo(os.Stdout, summary, cfg)
}

// writeSummaryTo renders the summary to an arbitrary writer.
func writeSummaryTo(w io.Writer, summary *schema.RunSummary, cfg *contract.Config) error {
	fmt.Fprintf(w, "Run %s finished in %v\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Snapshots: %d/%d repos\n", summary.SnapshotsWritten, summary.TotalRepos)

	if len(summary.Failures) == 0 {
		fmt.Fprintln(w, "Failures: none")
		return nil
	}

	fmt.Fprintf(w, "Failures: %d\n", len(summary.Failures))
	for _, kind := range sortedKinds(summary.FailuresByKind) {
		fmt.Fprintf(w, "  %s: %d\n", kind, summary.FailuresByKind[kind])
	}

	shown := min(len(summary.Failures), cfg.MaxFailuresShown)
	for _, failure := range summary.Failures[:shown] {
		label := failure.Repo
		if cfg.Color {
			label = contract.RedColor.Sprint(failure.Repo)
		}
		fmt.Fprintf(w, "  %s: %s\n", label, contract.TruncateMessage(failure.Error, failureMessageWidth))
	}
	if remaining := len(summary.Failures) - shown; remaining > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", remaining)
	}
	return nil
}

// sortedKinds returns bucket names in stable alphabetical order.
func sortedKinds(byKind map[string]int) []string {
	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
