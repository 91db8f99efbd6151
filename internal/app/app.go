package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/fidash/internal/clients/fimcp"
	"github.com/bobmcallan/fidash/internal/clients/fitool"
	"github.com/bobmcallan/fidash/internal/clients/fixture"
	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/mcptools"
	"github.com/bobmcallan/fidash/internal/services/dashboard"
	"github.com/bobmcallan/fidash/internal/services/fetch"
	"github.com/bobmcallan/fidash/internal/storage"
)

// App holds the gateway, snapshot store, dashboard service and MCP server.
// It is the shared core of the serve and snapshot commands.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Gateway     interfaces.Gateway
	Store       interfaces.SnapshotStore
	Dashboard   *dashboard.Service
	MCPServer   *server.MCPServer
	StartupTime time.Time

	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath returns configPath, FIDASH_CONFIG, fidash.toml beside the
// binary, or config/fidash.toml, whichever is found first.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FIDASH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "fidash.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fidash.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes the App.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.Gateway.FixtureDir = resolveFixtureDir(config.Gateway.FixtureDir)

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppFromConfig(context.Background(), config, logger)
}

// NewAppFromConfig initializes the App from an already loaded Config.
func NewAppFromConfig(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	if logger == nil {
		logger = common.NewSilentLogger()
	}

	gateway, err := newGateway(config, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSnapshotStore(ctx, logger, config.Storage)
	if err != nil {
		closeGateway(gateway)
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	fetcher := fetch.NewFetcher(gateway, config.Gateway.GetTimeout(), logger)
	svc := dashboard.NewService(gateway, fetcher, store, logger,
		dashboard.WithSessionID(sessionKey(config.Gateway)),
		dashboard.WithHistoryLimit(config.Storage.HistoryLimit),
	)

	if err := svc.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("Starting without a stored snapshot")
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Gateway:     gateway,
		Store:       store,
		Dashboard:   svc,
		MCPServer:   mcptools.NewMCPServer(svc, logger),
		StartupTime: startupStart,
	}

	logger.Info().
		Str("gateway", gateway.Name()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// newGateway builds the Fi data source selected by gateway.kind.
func newGateway(config *common.Config, logger *common.Logger) (interfaces.Gateway, error) {
	gc := config.Gateway
	switch gc.Kind {
	case common.GatewayMCP:
		return fimcp.NewClient(gc.SessionID,
			fimcp.WithBaseURL(gc.BaseURL),
			fimcp.WithLogger(logger),
			fimcp.WithRateLimit(gc.RateLimit),
			fimcp.WithTimeout(gc.GetTimeout()),
		), nil
	case common.GatewayHTTP:
		return fitool.NewClient(gc.SessionID,
			fitool.WithBaseURL(gc.BaseURL),
			fitool.WithLogger(logger),
			fitool.WithRateLimit(gc.RateLimit),
			fitool.WithTimeout(gc.GetTimeout()),
		), nil
	case common.GatewayFixture:
		return fixture.NewGateway(gc.FixtureDir, gc.PhoneNumber, logger), nil
	default:
		return nil, fmt.Errorf("unknown gateway kind %q", gc.Kind)
	}
}

// sessionKey names the history snapshots are stored under.
func sessionKey(gc common.GatewayConfig) string {
	switch {
	case gc.SessionID != "":
		return gc.SessionID
	case gc.PhoneNumber != "":
		return gc.PhoneNumber
	default:
		return "default"
	}
}

// resolveFixtureDir keeps a relative fixture directory that exists under the
// working directory, otherwise resolves it beside the binary.
func resolveFixtureDir(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	return filepath.Join(getBinaryDir(), dir)
}

func closeGateway(g interfaces.Gateway) {
	if c, ok := g.(io.Closer); ok {
		_ = c.Close()
	}
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close gateway, close storage.
func (a *App) Close() {
	a.StopScheduler()
	if a.Gateway != nil {
		closeGateway(a.Gateway)
		a.Gateway = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close snapshot store")
		}
		a.Store = nil
	}
}
