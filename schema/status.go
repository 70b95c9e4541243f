package schema

import "time"

// StoreStatus holds health information about the persistence layer,
// reported by the db check command.
type StoreStatus struct {
	Backend        string    `json:"backend"`
	Connected      bool      `json:"connected"`
	TotalRepos     int       `json:"total_repos"`
	TotalRuns      int       `json:"total_runs"`
	TotalSnapshots int       `json:"total_snapshots"`
	LastRunTime    time.Time `json:"last_run_time,omitempty"`
}
