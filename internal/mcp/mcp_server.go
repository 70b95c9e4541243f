// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the RepoPulse MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"RepoPulse Health Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_portfolio_health ---
	s.AddTool(mcp.NewTool("get_portfolio_health",
		mcp.WithDescription("Return the latest health snapshot per tracked repository."),
		mcp.WithString("status", mcp.Description("Filter by health status (red, yellow, green)."), mcp.Enum("red", "yellow", "green")),
	), h.handleGetPortfolioHealth)

	// --- 2. Tool: get_repo_snapshot ---
	s.AddTool(mcp.NewTool("get_repo_snapshot",
		mcp.WithDescription("Return the latest snapshot for one repository, including risk flags and evidence."),
		mcp.WithString("owner", mcp.Description("Repository owner."), mcp.Required()),
		mcp.WithString("name", mcp.Description("Repository name."), mcp.Required()),
	), h.handleGetRepoSnapshot)

	// --- 3. Tool: get_run_summary ---
	s.AddTool(mcp.NewTool("get_run_summary",
		mcp.WithDescription("Return bookkeeping records for recent batch runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return. Defaults to 5.")),
	), h.handleGetRunSummary)

	// --- 4. Tool: get_snapshot_history ---
	s.AddTool(mcp.NewTool("get_snapshot_history",
		mcp.WithDescription("Return snapshots captured within the last N days for trend analysis."),
		mcp.WithNumber("days", mcp.Description("Number of days to look back. Defaults to 7."), mcp.Required()),
		mcp.WithString("owner", mcp.Description("Optional owner filter.")),
		mcp.WithString("name", mcp.Description("Optional name filter.")),
	), h.handleGetSnapshotHistory)

	return s
}

// StartMCPServer starts the RepoPulse MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
