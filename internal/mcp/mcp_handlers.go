package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

func (h *toolHandler) handleGetPortfolioHealth(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshots, err := h.mgr.Snapshots().LatestSnapshots()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot query failed: %v", err)), nil
	}

	if statusFilter := request.GetString("status", ""); statusFilter != "" {
		status := schema.HealthStatus(statusFilter)
		if _, ok := schema.ValidHealthStatuses[status]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid status filter: %s", statusFilter)), nil
		}
		filtered := snapshots[:0]
		for _, snap := range snapshots {
			if snap.StatusRYG == status {
				filtered = append(filtered, snap)
			}
		}
		snapshots = filtered
	}

	jsonData, _ := json.MarshalIndent(snapshots, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetRepoSnapshot(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := request.GetString("owner", "")
	name := request.GetString("name", "")
	if owner == "" || name == "" {
		return mcp.NewToolResultError("owner and name are required"), nil
	}

	snapshots, err := h.mgr.Snapshots().LatestSnapshots()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot query failed: %v", err)), nil
	}

	for _, snap := range snapshots {
		if snap.Repo.Owner == owner && snap.Repo.Name == name {
			jsonData, _ := json.MarshalIndent(snap, "", "  ")
			return mcp.NewToolResultText(string(jsonData)), nil
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("no snapshot found for %s/%s", owner, name)), nil
}

func (h *toolHandler) handleGetRunSummary(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be positive (received %d)", limit)), nil
	}

	runs, err := h.mgr.Runs().ListRuns(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetSnapshotHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := request.GetInt("days", 7)
	if days <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("days must be positive (received %d)", days)), nil
	}

	since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	snapshots, err := h.mgr.Snapshots().SnapshotsSince(since)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot query failed: %v", err)), nil
	}

	owner := request.GetString("owner", "")
	name := request.GetString("name", "")
	if owner != "" || name != "" {
		filtered := snapshots[:0]
		for _, snap := range snapshots {
			if owner != "" && snap.Repo.Owner != owner {
				continue
			}
			if name != "" && snap.Repo.Name != name {
				continue
			}
			filtered = append(filtered, snap)
		}
		snapshots = filtered
	}

	jsonData, _ := json.MarshalIndent(snapshots, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
