package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
	"github.com/bobmcallan/fidash/internal/services/classify"
)

const defaultRecentTransactions = 10

func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("fidash MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

func handleGetDashboard(svc interfaces.DashboardService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		format := request.GetString("format", "markdown")
		if format != "markdown" && format != "json" {
			return errorResult(fmt.Sprintf("Error: unsupported format %q (use 'markdown' or 'json')", format)), nil
		}

		snap, err := currentOrRefresh(ctx, svc)
		if err != nil {
			logger.Error().Err(err).Msg("get_dashboard failed")
			return errorResult(fmt.Sprintf("Dashboard error: %v", err)), nil
		}

		if format == "json" {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return errorResult(fmt.Sprintf("Encoding error: %v", err)), nil
			}
			return textResult(string(data)), nil
		}

		recent := request.GetInt("transactions", defaultRecentTransactions)
		if recent < 0 {
			recent = 0
		}
		return textResult(formatDashboard(snap, recent)), nil
	}
}

func handleRefreshDashboard(svc interfaces.DashboardService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := svc.Refresh(ctx)
		if errors.Is(err, models.ErrSuperseded) {
			return errorResult("Refresh superseded by a newer refresh; call get_dashboard for the latest snapshot"), nil
		}
		if err != nil {
			logger.Error().Err(err).Msg("refresh_dashboard failed")
			return errorResult(fmt.Sprintf("Refresh error: %v", err)), nil
		}
		return textResult(formatDashboard(snap, defaultRecentTransactions)), nil
	}
}

func handleGetCategorySpend(svc interfaces.DashboardService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := currentOrRefresh(ctx, svc)
		if err != nil {
			logger.Error().Err(err).Msg("get_category_spend failed")
			return errorResult(fmt.Sprintf("Dashboard error: %v", err)), nil
		}
		return textResult(formatCategorySpend(snap.CategorySpend)), nil
	}
}

func handleClassifyNarration() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		narration, err := request.RequireString("narration")
		if err != nil {
			return errorResult("Error: narration parameter is required"), nil
		}
		return textResult(classify.Classify(narration)), nil
	}
}

func handleGetToolData(svc interfaces.DashboardService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tool, err := request.RequireString("tool")
		if err != nil || tool == "" {
			return errorResult("Error: tool parameter is required"), nil
		}
		if !models.ValidToolName(tool) {
			return errorResult(fmt.Sprintf("Error: unknown tool %q", tool)), nil
		}

		raw, err := svc.RawTool(ctx, models.ToolName(tool))
		if err != nil {
			logger.Warn().Err(err).Str("tool", tool).Msg("get_tool_data failed")
			return errorResult(fmt.Sprintf("Tool error: %v", err)), nil
		}
		return textResult(string(raw)), nil
	}
}

// currentOrRefresh returns the active snapshot, building one when none exists yet.
func currentOrRefresh(ctx context.Context, svc interfaces.DashboardService) (*models.DashboardModel, error) {
	snap, err := svc.Current()
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, models.ErrNoSnapshot) {
		return nil, err
	}
	snap, err = svc.Refresh(ctx)
	if errors.Is(err, models.ErrSuperseded) {
		// a newer refresh owns publication; serve whatever is active
		return svc.Current()
	}
	return snap, err
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
