package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteRepoList outputs the tracked repo registry, dispatching based on the
// output format configured.
func WriteRepoList(repos []schema.RepoRef, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, repos)
		}, "Wrote JSON")

	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"owner", "name", "url", "dev_owner", "team", "active"}
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				for _, repo := range repos {
					rec := []string{
						repo.Owner,
						repo.Name,
						repo.URL,
						repo.DevOwner,
						repo.Team,
						fmt.Sprintf("%t", repo.Active),
					}
					if err := csvWriter.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")

	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRepoTable(repos, w)
		}, "Wrote table")
	}
}

// writeRepoTable generates and writes the human-readable registry table.
func writeRepoTable(repos []schema.RepoRef, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Repo", "Dev Owner", "Team", "Active"})

	var data [][]string
	for _, repo := range repos {
		data = append(data, []string{
			repo.Slug(),
			repo.DevOwner,
			repo.Team,
			fmt.Sprintf("%t", repo.Active),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(writer, "Tracking %d repos\n", len(repos))
	return err
}
