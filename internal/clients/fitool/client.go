// Package fitool provides a client for the Fi tool server's plain HTTP
// endpoints: GET /tool for raw tool payloads and POST /login for sessions.
package fitool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	maxBodyBytes = 16 << 20
)

// Client implements interfaces.Gateway over the tool server.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
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
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a tool server client bound to one Fi session.
func NewClient(sessionID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		sessionID: sessionID,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-200 reply from the tool server
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Fi tool server error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap lets callers match any tool server failure as source unavailable.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return models.ErrNoSession
	}
	return models.ErrSourceUnavailable
}

// Name identifies the gateway
func (c *Client) Name() string {
	return "fitool"
}

// Retrieve fetches one tool's payload via GET /tool?sessionId=&tool=
func (c *Client) Retrieve(ctx context.Context, tool models.ToolName) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("sessionId", c.sessionID)
	params.Set("tool", string(tool))

	body, err := c.do(ctx, http.MethodGet, "/tool?"+params.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s returned invalid JSON", models.ErrSourceUnavailable, tool)
	}
	return json.RawMessage(body), nil
}

// Login binds the client's session to a phone number via POST /login.
func (c *Client) Login(ctx context.Context, phoneNumber string) error {
	form := url.Values{
		"sessionId":   {c.sessionID},
		"phoneNumber": {phoneNumber},
	}
	if _, err := c.do(ctx, http.MethodPost, "/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.logger.Info().Str("session_id", c.sessionID).Msg("Fi session logged in")
	return nil
}

// do performs a rate-limited request and returns the body of a 200 reply
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug().Str("method", method).Str("url", path).Msg("Fi tool server request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", models.ErrSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			Endpoint:   strings.SplitN(path, "?", 2)[0],
		}
	}

	return data, nil
}

var (
	_ interfaces.Gateway      = (*Client)(nil)
	_ interfaces.SessionLogin = (*Client)(nil)
)
