package interfaces

import (
	"context"

	"github.com/bobmcallan/fidash/internal/models"
)

// SnapshotStore persists published dashboard snapshots per Fi session.
type SnapshotStore interface {
	// SaveSnapshot stores a published snapshot
	SaveSnapshot(ctx context.Context, sessionID string, snapshot *models.DashboardModel) error

	// LatestSnapshot returns the most recent snapshot or models.ErrNoSnapshot
	LatestSnapshot(ctx context.Context, sessionID string) (*models.DashboardModel, error)

	// ListSnapshots returns up to limit snapshots, newest first
	ListSnapshots(ctx context.Context, sessionID string, limit int) ([]*models.DashboardModel, error)

	// Close releases the backend connection
	Close() error
}
