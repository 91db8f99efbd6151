package fimcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fidash/internal/models"
)

const fixtureDir = "../fixture/testdata/2222222222"

// newFakeFiServer serves the fixture payloads as Fi MCP tools. EPF reports a
// tool error and stocks replies with non-JSON text.
func newFakeFiServer(t *testing.T) *server.MCPServer {
	t.Helper()
	s := server.NewMCPServer("fi-mcp-fake", "test", server.WithToolCapabilities(true))

	for _, tool := range models.AllTools {
		name := string(tool)
		s.AddTool(mcp.NewTool(name, mcp.WithDescription("fixture "+name)),
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				switch models.ToolName(name) {
				case models.ToolEPFDetails:
					return mcp.NewToolResultError("EPF service unavailable"), nil
				case models.ToolStockTransactions:
					return mcp.NewToolResultText("stocks are not linked"), nil
				}
				data, err := os.ReadFile(filepath.Join(fixtureDir, name+".json"))
				if err != nil {
					return nil, err
				}
				return mcp.NewToolResultText(string(data)), nil
			})
	}
	return s
}

func inProcessDialer(t *testing.T, s *server.MCPServer, dials *atomic.Int32) func() (*client.Client, error) {
	return func() (*client.Client, error) {
		dials.Add(1)
		return client.NewInProcessClient(s)
	}
}

func TestRetrieve_ReturnsToolText(t *testing.T) {
	var dials atomic.Int32
	c := NewClient("mcp-session-1", WithDialer(inProcessDialer(t, newFakeFiServer(t), &dials)), WithRateLimit(100))
	t.Cleanup(func() { c.Close() })

	raw, err := c.Retrieve(context.Background(), models.ToolNetWorth)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "netWorthResponse")

	raw, err = c.Retrieve(context.Background(), models.ToolBankTransactions)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "bankTransactions")

	assert.Equal(t, int32(1), dials.Load(), "session is reused across calls")
}

func TestRetrieve_ToolErrorIsSourceUnavailable(t *testing.T) {
	var dials atomic.Int32
	c := NewClient("s", WithDialer(inProcessDialer(t, newFakeFiServer(t), &dials)))
	t.Cleanup(func() { c.Close() })

	_, err := c.Retrieve(context.Background(), models.ToolEPFDetails)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, models.ToolEPFDetails, toolErr.Tool)
	assert.Contains(t, toolErr.Message, "EPF service unavailable")
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
}

func TestRetrieve_NonJSONText(t *testing.T) {
	var dials atomic.Int32
	c := NewClient("s", WithDialer(inProcessDialer(t, newFakeFiServer(t), &dials)))
	t.Cleanup(func() { c.Close() })

	_, err := c.Retrieve(context.Background(), models.ToolStockTransactions)
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
}

func TestRetrieve_UnknownTool(t *testing.T) {
	var dials atomic.Int32
	c := NewClient("s", WithDialer(inProcessDialer(t, newFakeFiServer(t), &dials)))
	t.Cleanup(func() { c.Close() })

	_, err := c.Retrieve(context.Background(), "fetch_everything")
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
}

func TestRetrieve_DialFailure(t *testing.T) {
	c := NewClient("s", WithDialer(func() (*client.Client, error) {
		return nil, errors.New("no route to host")
	}))

	_, err := c.Retrieve(context.Background(), models.ToolNetWorth)
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "no route to host")
}

func TestRetrieve_UnreachableStreamableEndpoint(t *testing.T) {
	c := NewClient("s", WithBaseURL("http://127.0.0.1:1/mcp/stream"))
	_, err := c.Retrieve(context.Background(), models.ToolNetWorth)
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
}
