// Package storage selects the snapshot history backend.
package storage

import (
	"context"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/storage/memory"
	"github.com/bobmcallan/fidash/internal/storage/surrealdb"
)

// NewSnapshotStore returns the SurrealDB store when storage is enabled,
// otherwise an in-memory history.
func NewSnapshotStore(ctx context.Context, logger *common.Logger, config common.StorageConfig) (interfaces.SnapshotStore, error) {
	if !config.Enabled {
		logger.Info().Int("history_limit", config.HistoryLimit).Msg("Using in-memory snapshot history")
		return memory.NewStore(config.HistoryLimit), nil
	}
	store, err := surrealdb.NewSnapshotStore(ctx, logger, config)
	if err != nil {
		return nil, err
	}
	return store, nil
}
