package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/parquet"
	"github.com/huangsam/repopulse/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSnapshotResults outputs repo snapshots, dispatching based on the output format configured.
func WriteSnapshotResults(snapshots []schema.RepoSnapshot, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeSnapshotJSONResults(snapshots, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeSnapshotCSVResults(snapshots, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires an output file path")
		}
		if err := parquet.WriteSnapshotsParquet(parquet.SnapshotRows(snapshots), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		fmt.Printf("Wrote %d snapshots to %s\n", len(snapshots), cfg.OutputFile)
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSnapshotTable(snapshots, cfg, w)
		}, "Wrote table")
	}
	return nil
}

// writeSnapshotJSONResults handles opening the file and calling the JSON writer.
func writeSnapshotJSONResults(snapshots []schema.RepoSnapshot, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, snapshots)
	}, "Wrote JSON")
}

// writeSnapshotCSVResults handles opening the file and calling the CSV writer.
func writeSnapshotCSVResults(snapshots []schema.RepoSnapshot, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{
			"owner",
			"name",
			"captured_at",
			"status_ryg",
			"status_explanation",
			"commits_24h",
			"commits_7d",
			"ci_status",
			"latest_release",
			"risk_flags",
		}
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			return writeCSVResultsForSnapshots(csvWriter, snapshots)
		})
	}, "Wrote CSV")
}

// writeCSVResultsForSnapshots writes the snapshot rows in CSV format.
func writeCSVResultsForSnapshots(w *csv.Writer, snapshots []schema.RepoSnapshot) error {
	for _, snap := range snapshots {
		rec := []string{
			snap.Repo.Owner,
			snap.Repo.Name,
			snap.CapturedAt.UTC().Format(contract.TimeFormat),
			string(snap.StatusRYG),
			snap.StatusExplanation,
			fmtIntPtr(snap.Commits24h),
			fmtIntPtr(snap.Commits7d),
			string(snap.CIStatus),
			fmtStringPtr(releaseLabel(&snap)),
			strconv.Itoa(len(snap.RiskFlags)),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeSnapshotTable generates and writes the human-readable table.
func writeSnapshotTable(snapshots []schema.RepoSnapshot, cfg *contract.Config, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Repo", "Status", "Explanation", "24h", "7d", "CI", "Last Commit", "Release", "Flags"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignLeft
	})

	explanationWidth := GetMaxExplanationWidth(cfg)

	var data [][]string
	for _, snap := range snapshots {
		label := contract.GetPlainStatusLabel(snap.StatusRYG)
		if cfg.Color {
			label = contract.GetColorStatusLabel(snap.StatusRYG)
		}
		row := []string{
			snap.Repo.Slug(),
			label,
			contract.TruncateMessage(snap.StatusExplanation, explanationWidth),
			fmtIntPtr(snap.Commits24h),
			fmtIntPtr(snap.Commits7d),
			string(snap.CIStatus),
			fmtTimePtr(snap.LastCommitAt),
			fmtStringPtr(releaseLabel(&snap)),
			strconv.Itoa(len(snap.RiskFlags)),
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Status distribution after the table
	counts := map[schema.HealthStatus]int{}
	for _, snap := range snapshots {
		counts[snap.StatusRYG]++
	}
	_, err := fmt.Fprintf(writer, "Showing %d repos (red: %d, yellow: %d, green: %d)\n",
		len(snapshots), counts[schema.RedStatus], counts[schema.YellowStatus], counts[schema.GreenStatus])
	return err
}

// releaseLabel prefers the tag name over the formal release name.
func releaseLabel(snap *schema.RepoSnapshot) *string {
	if snap.LatestTag != nil {
		return snap.LatestTag
	}
	return snap.LatestRelease
}
