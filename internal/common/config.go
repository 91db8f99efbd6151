package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for fidash
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Gateway     GatewayConfig `toml:"gateway"`
	Refresh     RefreshConfig `toml:"refresh"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Gateway kinds
const (
	GatewayMCP     = "mcp"
	GatewayHTTP    = "http"
	GatewayFixture = "fixture"
)

// GatewayConfig selects and configures the Fi data source.
type GatewayConfig struct {
	Kind        string `toml:"kind"`     // mcp, http or fixture
	BaseURL     string `toml:"base_url"` // MCP stream endpoint or tool server root
	SessionID   string `toml:"session_id"`
	PhoneNumber string `toml:"phone_number"`
	RateLimit   int    `toml:"rate_limit"` // requests per second
	Timeout     string `toml:"timeout"`    // per-tool retrieval timeout
	FixtureDir  string `toml:"fixture_dir"`
}

// GetTimeout parses and returns the per-tool timeout duration.
func (c *GatewayConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RefreshConfig controls the periodic dashboard refresh.
type RefreshConfig struct {
	Interval string `toml:"interval"` // "0" or empty disables the scheduler
	Timeout  string `toml:"timeout"`  // whole-refresh deadline
	OnStart  bool   `toml:"on_start"`
}

// GetInterval returns the scheduler interval, zero when disabled.
func (c *RefreshConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetTimeout returns the whole-refresh deadline.
func (c *RefreshConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// StorageConfig holds snapshot history storage configuration.
// When disabled, snapshots are kept in memory only.
type StorageConfig struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	Namespace    string `toml:"namespace"`
	Database     string `toml:"database"`
	HistoryLimit int    `toml:"history_limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Gateway: GatewayConfig{
			Kind:       GatewayMCP,
			BaseURL:    "http://localhost:8080/mcp/stream",
			RateLimit:  5,
			Timeout:    "30s",
			FixtureDir: "test_data_dir",
		},
		Refresh: RefreshConfig{
			Interval: "0",
			Timeout:  "2m",
			OnStart:  true,
		},
		Storage: StorageConfig{
			Enabled:      false,
			Address:      "ws://localhost:8000/rpc",
			Username:     "root",
			Password:     "root",
			Namespace:    "fidash",
			Database:     "fidash",
			HistoryLimit: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FIDASH_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FIDASH_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FIDASH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FIDASH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("FIDASH_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	// Gateway overrides
	if v := os.Getenv("FIDASH_GATEWAY_KIND"); v != "" {
		config.Gateway.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("FIDASH_GATEWAY_URL"); v != "" {
		config.Gateway.BaseURL = v
	}
	if v := os.Getenv("FIDASH_SESSION_ID"); v != "" {
		config.Gateway.SessionID = v
	}
	if v := os.Getenv("FIDASH_PHONE_NUMBER"); v != "" {
		config.Gateway.PhoneNumber = v
	}
	if v := os.Getenv("FIDASH_FIXTURE_DIR"); v != "" {
		config.Gateway.FixtureDir = v
	}

	if v := os.Getenv("FIDASH_REFRESH_INTERVAL"); v != "" {
		config.Refresh.Interval = v
	}

	// Storage overrides
	if v := os.Getenv("FIDASH_STORAGE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Storage.Enabled = b
		}
	}
	if v := os.Getenv("FIDASH_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("FIDASH_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("FIDASH_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Gateway.Kind {
	case GatewayMCP, GatewayHTTP:
		if c.Gateway.BaseURL == "" {
			return fmt.Errorf("gateway.base_url is required for gateway kind %q", c.Gateway.Kind)
		}
	case GatewayFixture:
		if c.Gateway.FixtureDir == "" {
			return fmt.Errorf("gateway.fixture_dir is required for the fixture gateway")
		}
	default:
		return fmt.Errorf("unknown gateway kind %q (want mcp, http or fixture)", c.Gateway.Kind)
	}
	if c.Storage.HistoryLimit <= 0 {
		c.Storage.HistoryLimit = 50
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
