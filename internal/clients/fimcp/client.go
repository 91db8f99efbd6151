// Package fimcp retrieves Fi tool payloads over the Fi MCP server's
// streamable HTTP endpoint.
package fimcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8080/mcp/stream"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements interfaces.Gateway over MCP. The underlying MCP session
// is opened lazily and re-opened after a transport failure.
type Client struct {
	baseURL   string
	sessionID string
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *common.Logger
	dial      func() (*client.Client, error)

	mu  sync.Mutex
	mcp *client.Client
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the MCP endpoint URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithDialer replaces how the MCP client is created, e.g. with an in-process client.
func WithDialer(dial func() (*client.Client, error)) ClientOption {
	return func(c *Client) {
		c.dial = dial
	}
}

// NewClient creates a Fi MCP client for one session.
func NewClient(sessionID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		sessionID: sessionID,
		timeout:   DefaultTimeout,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:    common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.dial == nil {
		c.dial = c.dialStreamable
	}
	return c
}

// ToolError is an error result reported by the Fi MCP server for a tool call.
type ToolError struct {
	Tool    models.ToolName
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("Fi MCP tool %s failed: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return models.ErrSourceUnavailable
}

// Name identifies the gateway
func (c *Client) Name() string {
	return "fimcp"
}

func (c *Client) dialStreamable() (*client.Client, error) {
	return client.NewStreamableHttpClient(c.baseURL,
		transport.WithHTTPHeaders(map[string]string{
			"Mcp-Session-Id": c.sessionID,
			"X-Session-ID":   c.sessionID,
		}),
		transport.WithHTTPTimeout(c.timeout),
	)
}

// session returns the initialized MCP client, connecting on first use.
func (c *Client) session(ctx context.Context) (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mcp != nil {
		return c.mcp, nil
	}

	mc, err := c.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create MCP client: %w", models.ErrSourceUnavailable, err)
	}
	if err := mc.Start(ctx); err != nil {
		mc.Close()
		return nil, fmt.Errorf("%w: failed to start MCP transport: %w", models.ErrSourceUnavailable, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "fidash",
		Version: common.GetVersion(),
	}
	info, err := mc.Initialize(ctx, initReq)
	if err != nil {
		mc.Close()
		return nil, fmt.Errorf("%w: MCP initialize failed: %w", models.ErrSourceUnavailable, err)
	}

	c.logger.Info().
		Str("url", c.baseURL).
		Str("server", info.ServerInfo.Name).
		Str("server_version", info.ServerInfo.Version).
		Msg("Connected to Fi MCP server")

	c.mcp = mc
	return mc, nil
}

// reset drops a broken session so the next call reconnects.
func (c *Client) reset(broken *client.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcp == broken {
		c.mcp.Close()
		c.mcp = nil
	}
}

// Retrieve calls the tool with no arguments and returns its text content as JSON.
func (c *Client) Retrieve(ctx context.Context, tool models.ToolName) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	mc, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = string(tool)
	req.Params.Arguments = map[string]any{}

	c.logger.Debug().Str("tool", string(tool)).Msg("Fi MCP tool call")

	res, err := mc.CallTool(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			c.reset(mc)
		}
		return nil, fmt.Errorf("%w: call %s: %w", models.ErrSourceUnavailable, tool, err)
	}

	text := strings.TrimSpace(textContent(res))
	if res.IsError {
		return nil, &ToolError{Tool: tool, Message: text}
	}
	if text == "" || !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("%w: %s returned non-JSON content", models.ErrSourceUnavailable, tool)
	}
	return json.RawMessage(text), nil
}

// Close ends the MCP session if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcp == nil {
		return nil
	}
	err := c.mcp.Close()
	c.mcp = nil
	return err
}

func textContent(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range res.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

var _ interfaces.Gateway = (*Client)(nil)
