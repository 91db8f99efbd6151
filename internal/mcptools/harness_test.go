package mcptools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/models"
)

// fakeDashboard is an in-memory DashboardService.
type fakeDashboard struct {
	mu         sync.Mutex
	current    *models.DashboardModel
	next       *models.DashboardModel
	refreshErr error
	refreshes  int
	raw        map[models.ToolName]json.RawMessage
	rawErr     error
}

func (f *fakeDashboard) Current() (*models.DashboardModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, models.ErrNoSnapshot
	}
	return f.current, nil
}

func (f *fakeDashboard) Refresh(ctx context.Context) (*models.DashboardModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return f.next, f.refreshErr
	}
	f.current = f.next
	return f.next, nil
}

func (f *fakeDashboard) History(ctx context.Context, limit int) ([]*models.DashboardModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return []*models.DashboardModel{}, nil
	}
	return []*models.DashboardModel{f.current}, nil
}

func (f *fakeDashboard) RawTool(ctx context.Context, tool models.ToolName) (json.RawMessage, error) {
	if f.rawErr != nil {
		return nil, f.rawErr
	}
	return f.raw[tool], nil
}

func sampleDashboard() *models.DashboardModel {
	sources := make(map[models.ToolName]models.SourceStatus, len(models.AllTools))
	for _, t := range models.AllTools {
		sources[t] = models.SourceStatus{OK: true}
	}
	sources[models.ToolCreditReport] = models.SourceStatus{Error: "source unavailable: login required"}

	return &models.DashboardModel{
		Generation:  3,
		GeneratedAt: time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC),
		NetWorth:    803374.5,
		BankBalance: 39250,
		CashFlow:    -23450,
		Transactions: []models.TransactionRecord{
			{Bank: "HDFC Bank", Amount: 750, Narration: "ATM WITHDRAWAL", Date: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), Direction: models.DirectionDebit},
			{Bank: "HDFC Bank", Amount: 75000, Narration: "SALARY JAN", Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Direction: models.DirectionCredit},
		},
		Assets:        models.AssetAllocation{"SAVINGS ACCOUNTS": 436979.5, "EPF": 211111},
		Liabilities:   models.AssetAllocation{"VEHICLE LOAN": 125000},
		CategorySpend: models.CategorySpend{"Rent": 20000, "Groceries": 1850.5},
		MonthlySeries: []models.MonthlyBucket{{MonthKey: "2024-01", Credits: 75000, Debits: 29550.5}},
		Stats:         models.DashboardStats{CreditAccounts: 4, CreditScore: 746, MFHoldings: 3, StockHoldings: 2, EPFBalance: 211111},
		Sources:       sources,
	}
}

// testHarness connects an in-process MCP client to a server with the
// dashboard tools registered over a fake service.
type testHarness struct {
	t      *testing.T
	client *client.Client
	svc    *fakeDashboard
}

func newTestHarness(t *testing.T, svc *fakeDashboard) *testHarness {
	t.Helper()

	mcpServer := NewMCPServer(svc, common.NewSilentLogger())

	c, err := client.NewInProcessClient(mcpServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Failed to start client: %v", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "fidash-test",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		t.Fatalf("Failed to initialize MCP: %v", err)
	}

	h := &testHarness{t: t, client: c, svc: svc}
	t.Cleanup(func() { c.Close() })
	return h
}

func (h *testHarness) callTool(name string, args map[string]any) *mcp.CallToolResult {
	h.t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := h.client.CallTool(context.Background(), req)
	if err != nil {
		h.t.Fatalf("CallTool(%s) failed: %v", name, err)
	}
	return res
}

func (h *testHarness) text(result *mcp.CallToolResult) string {
	h.t.Helper()
	if len(result.Content) == 0 {
		h.t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		h.t.Fatalf("Content[0] is %T, not TextContent", result.Content[0])
	}
	return tc.Text
}
