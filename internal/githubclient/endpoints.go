package githubclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// Repo fetches repository metadata, including the default branch.
func (c *Client) Repo(ctx context.Context, owner, name string) (*schema.RepoMeta, error) {
	var meta schema.RepoMeta
	path := fmt.Sprintf("/repos/%s/%s", owner, name)
	if err := c.GetJSON(ctx, path, nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListCommits fetches a commit listing for a branch, newest-first. A zero
// since lists without a window bound.
func (c *Client) ListCommits(ctx context.Context, owner, name, branch string, since time.Time, perPage int) ([]schema.Commit, error) {
	params := url.Values{}
	if branch != "" {
		params.Set("sha", branch)
	}
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339))
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	var commits []schema.Commit
	path := fmt.Sprintf("/repos/%s/%s/commits", owner, name)
	if err := c.GetJSON(ctx, path, params, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// CommitDetail fetches a single commit including its file list.
func (c *Client) CommitDetail(ctx context.Context, owner, name, sha string) (*schema.CommitDetail, error) {
	var detail schema.CommitDetail
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", owner, name, sha)
	if err := c.GetJSON(ctx, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// LatestWorkflowRun fetches the most recent GitHub Actions run, or nil when
// the repo has workflows configured but no runs yet. A repo with Actions
// never enabled yields a 404 TerminalError, which the actions collector
// maps to schema.CINone.
func (c *Client) LatestWorkflowRun(ctx context.Context, owner, name string) (*schema.WorkflowRun, error) {
	params := url.Values{}
	params.Set("per_page", "1")

	var list schema.WorkflowRunList
	path := fmt.Sprintf("/repos/%s/%s/actions/runs", owner, name)
	if err := c.GetJSON(ctx, path, params, &list); err != nil {
		return nil, err
	}
	if len(list.WorkflowRuns) == 0 {
		return nil, nil
	}
	return &list.WorkflowRuns[0], nil
}

// LatestTag fetches the most recent tag, or nil when the repo has none.
func (c *Client) LatestTag(ctx context.Context, owner, name string) (*schema.Tag, error) {
	params := url.Values{}
	params.Set("per_page", "1")

	var tags []schema.Tag
	path := fmt.Sprintf("/repos/%s/%s/tags", owner, name)
	if err := c.GetJSON(ctx, path, params, &tags); err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return &tags[0], nil
}

// LatestRelease fetches the latest formal release. A repo without releases
// returns a 404 TerminalError; the releases collector treats it as absence.
func (c *Client) LatestRelease(ctx context.Context, owner, name string) (*schema.Release, error) {
	var release schema.Release
	path := fmt.Sprintf("/repos/%s/%s/releases/latest", owner, name)
	if err := c.GetJSON(ctx, path, nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// PathExists probes for a path at the repo root via the contents API.
// A 404 is expected absence, reported as (false, nil).
func (c *Client) PathExists(ctx context.Context, owner, name, filePath string) (bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, name, filePath)
	if _, err := c.Get(ctx, path, nil); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Contents fetches the contents-API record for a single repo-root file.
func (c *Client) Contents(ctx context.Context, owner, name, filePath string) (*schema.Contents, error) {
	var contents schema.Contents
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, name, filePath)
	if err := c.GetJSON(ctx, path, nil, &contents); err != nil {
		return nil, err
	}
	return &contents, nil
}

// Tree fetches the full recursive file tree for a ref. Callers must check
// Truncated before trusting the entry list.
func (c *Client) Tree(ctx context.Context, owner, name, ref string) (*schema.Tree, error) {
	params := url.Values{}
	params.Set("recursive", "1")

	var tree schema.Tree
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s", owner, name, ref)
	if err := c.GetJSON(ctx, path, params, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}
