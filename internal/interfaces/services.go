package interfaces

import (
	"context"
	"encoding/json"

	"github.com/bobmcallan/fidash/internal/models"
)

// DashboardService is the read/refresh surface shared by the REST API, the MCP tools and the CLI.
type DashboardService interface {
	// Current returns the active snapshot or models.ErrNoSnapshot
	Current() (*models.DashboardModel, error)

	// Refresh runs the full pipeline and publishes the result.
	// Returns models.ErrSuperseded (with the discarded snapshot) when a newer refresh started first.
	Refresh(ctx context.Context) (*models.DashboardModel, error)

	// History lists stored snapshots, newest first
	History(ctx context.Context, limit int) ([]*models.DashboardModel, error)

	// RawTool returns the unprocessed payload of one tool
	RawTool(ctx context.Context, tool models.ToolName) (json.RawMessage, error)
}
