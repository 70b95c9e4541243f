package schema

import "time"

// Wire models for the subset of the GitHub REST API that collectors consume.
// Fields not listed here are ignored during decoding.

// RepoMeta is the repository metadata payload.
type RepoMeta struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
}

// Commit is one entry of a commit listing. GitHub returns newest-first.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// CommitDetail is a single commit lookup including its file list.
type CommitDetail struct {
	SHA   string `json:"sha"`
	Files []struct {
		Filename string `json:"filename"`
	} `json:"files"`
}

// WorkflowRun is one GitHub Actions run.
type WorkflowRun struct {
	Status     string     `json:"status"`
	Conclusion string     `json:"conclusion"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// WorkflowRunList is the workflow-runs listing envelope.
type WorkflowRunList struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// Tag is one entry of a tag listing.
type Tag struct {
	Name string `json:"name"`
}

// Release is the latest-release payload.
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

// Contents is a contents-API lookup for a single file.
type Contents struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// TreeEntry is one entry of a recursive tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
}

// Tree is the recursive tree listing envelope. When Truncated is set the
// entry list is incomplete and must not be used for presence scans.
type Tree struct {
	Truncated bool        `json:"truncated"`
	Entries   []TreeEntry `json:"tree"`
}
