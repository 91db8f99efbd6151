// Package mcptools exposes the dashboard to MCP clients.
package mcptools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
)

// NewMCPServer creates an MCP server with every dashboard tool registered.
func NewMCPServer(svc interfaces.DashboardService, logger *common.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"fidash",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)
	Register(s, svc, logger)
	return s
}

// Register adds the dashboard tools to s.
func Register(s *server.MCPServer, svc interfaces.DashboardService, logger *common.Logger) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createGetDashboardTool(), handleGetDashboard(svc, logger))
	s.AddTool(createRefreshDashboardTool(), handleRefreshDashboard(svc, logger))
	s.AddTool(createGetCategorySpendTool(), handleGetCategorySpend(svc, logger))
	s.AddTool(createClassifyNarrationTool(), handleClassifyNarration())
	s.AddTool(createGetToolDataTool(), handleGetToolData(svc, logger))
}

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the fidash server version and status. Use this to verify connectivity."),
	)
}

func createGetDashboardTool() mcp.Tool {
	return mcp.NewTool("get_dashboard",
		mcp.WithDescription("Get the current personal finance dashboard: net worth, bank balance, 30 day cash flow, asset allocation, liabilities, monthly credits and debits, and which Fi sources failed. Builds the first snapshot if none exists yet."),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default) or 'json'"),
		),
		mcp.WithNumber("transactions",
			mcp.Description("Number of recent transactions to include in markdown output (default: 10)"),
		),
	)
}

func createRefreshDashboardTool() mcp.Tool {
	return mcp.NewTool("refresh_dashboard",
		mcp.WithDescription("Fetch all six Fi tools again and rebuild the dashboard. Failed tools are reported but never abort the refresh."),
	)
}

func createGetCategorySpendTool() mcp.Tool {
	return mcp.NewTool("get_category_spend",
		mcp.WithDescription("Get debit spending per category (Salary, Rent, Groceries, Fuel, Credit Card, Investments, UPI Payments, Others) from the current dashboard."),
	)
}

func createClassifyNarrationTool() mcp.Tool {
	return mcp.NewTool("classify_narration",
		mcp.WithDescription("Classify a bank transaction narration into a spending category using the dashboard's ordered keyword rules."),
		mcp.WithString("narration",
			mcp.Required(),
			mcp.Description("Transaction narration text (e.g., 'UPI/SWIGGY/GROCERY')"),
		),
	)
}

func createGetToolDataTool() mcp.Tool {
	tools := make([]string, len(models.AllTools))
	for i, t := range models.AllTools {
		tools[i] = string(t)
	}
	return mcp.NewTool("get_tool_data",
		mcp.WithDescription("Get the raw JSON a single Fi tool returns, without normalization."),
		mcp.WithString("tool",
			mcp.Required(),
			mcp.Enum(tools...),
			mcp.Description("Fi tool name (e.g., 'fetch_net_worth')"),
		),
	)
}
