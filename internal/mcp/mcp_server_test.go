package mcp_test

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	mcp_internal "github.com/huangsam/repopulse/internal/mcp"
	"github.com/huangsam/repopulse/internal/store"
	"github.com/huangsam/repopulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSnapshot persists one green snapshot so handlers have data to return.
func seedSnapshot(t *testing.T, mgr contract.StoreManager) {
	t.Helper()
	snap := &schema.RepoSnapshot{
		RunID:             "run-1",
		CapturedAt:        time.Now().UTC(),
		Repo:              schema.RepoRef{Owner: "octo", Name: "widgets"},
		CIStatus:          schema.CISuccess,
		StatusRYG:         schema.GreenStatus,
		StatusExplanation: "Meets configured freshness, CI and docs criteria.",
	}
	require.NoError(t, mgr.Snapshots().UpsertSnapshot(snap))
}

func newTestServerManager(t *testing.T) contract.StoreManager {
	t.Helper()
	mgr, err := store.NewManager(schema.SQLiteBackend, t.TempDir()+"/mcp_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestMCPServerHandlers(t *testing.T) {
	baseCfg := &contract.Config{}
	mgr := newTestServerManager(t)
	seedSnapshot(t, mgr)

	s := mcp_internal.NewMCPServer(baseCfg, mgr)
	ctx := context.Background()

	t.Run("get_portfolio_health returns snapshots", func(t *testing.T) {
		tool := s.GetTool("get_portfolio_health")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: "get_portfolio_health"},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "octo")
	})

	t.Run("get_portfolio_health rejects bad status", func(t *testing.T) {
		tool := s.GetTool("get_portfolio_health")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_portfolio_health",
				Arguments: map[string]any{"status": "purple"},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid status filter")
	})

	t.Run("get_repo_snapshot finds seeded repo", func(t *testing.T) {
		tool := s.GetTool("get_repo_snapshot")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_repo_snapshot",
				Arguments: map[string]any{"owner": "octo", "name": "widgets"},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, `"status_ryg": "green"`)
	})

	t.Run("get_repo_snapshot missing repo", func(t *testing.T) {
		tool := s.GetTool("get_repo_snapshot")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_repo_snapshot",
				Arguments: map[string]any{"owner": "octo", "name": "nonexistent"},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "no snapshot found")
	})

	t.Run("get_run_summary returns recent runs", func(t *testing.T) {
		run, err := mgr.Runs().StartRun("token", map[string]string{"repos": "abc123"})
		require.NoError(t, err)
		require.NoError(t, mgr.Runs().FinishRun(run.RunID, nil, map[string]string{"text": "stdout"}))

		tool := s.GetTool("get_run_summary")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: "get_run_summary"},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, run.RunID)
	})

	t.Run("get_run_summary rejects bad limit", func(t *testing.T) {
		tool := s.GetTool("get_run_summary")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_run_summary",
				Arguments: map[string]any{"limit": -2.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "limit must be positive")
	})

	t.Run("get_snapshot_history rejects bad days", func(t *testing.T) {
		tool := s.GetTool("get_snapshot_history")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_snapshot_history",
				Arguments: map[string]any{"days": -1.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "days must be positive")
	})

	t.Run("get_snapshot_history returns recent snapshots", func(t *testing.T) {
		tool := s.GetTool("get_snapshot_history")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_snapshot_history",
				Arguments: map[string]any{"days": 7.0, "owner": "octo"},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "widgets")
	})
}
