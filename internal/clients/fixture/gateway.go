// Package fixture serves tool payloads from JSON files laid out as
// <dir>/<phone number>/<tool>.json, the layout of the Fi MCP dev server's
// test data directory. It backs offline runs and tests.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
)

// Gateway reads tool payloads for one phone number from disk.
type Gateway struct {
	dir    string
	phone  string
	logger *common.Logger
}

// NewGateway creates a fixture gateway rooted at dir.
func NewGateway(dir, phoneNumber string, logger *common.Logger) *Gateway {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Gateway{dir: dir, phone: phoneNumber, logger: logger}
}

// Name identifies the gateway
func (g *Gateway) Name() string {
	return "fixture"
}

// Retrieve reads <dir>/<phone>/<tool>.json.
// A missing phone directory means the number never logged in.
func (g *Gateway) Retrieve(ctx context.Context, tool models.ToolName) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !models.ValidToolName(string(tool)) {
		return nil, fmt.Errorf("%w: unknown tool %s", models.ErrSourceUnavailable, tool)
	}

	userDir := filepath.Join(g.dir, filepath.Base(g.phone))
	if _, err := os.Stat(userDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no fixtures for %s", models.ErrNoSession, g.phone)
		}
		return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
	}

	path := filepath.Join(userDir, string(tool)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", models.ErrSourceUnavailable, path)
	}

	g.logger.Debug().Str("tool", string(tool)).Str("path", path).Msg("Fixture loaded")
	return json.RawMessage(data), nil
}

var _ interfaces.Gateway = (*Gateway)(nil)
