package surrealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
)

// snapshotRecord is the stored row. The model is kept as a JSON string so its
// float and time fields round-trip exactly.
type snapshotRecord struct {
	SessionID   string    `json:"session_id"`
	Generation  uint64    `json:"generation"`
	GeneratedAt time.Time `json:"generated_at"`
	SavedAt     time.Time `json:"saved_at"`
	Value       string    `json:"value"`
}

type snapshotRef struct {
	ID *surrealmodels.RecordID `json:"id"`
}

// SnapshotStore implements interfaces.SnapshotStore using SurrealDB.
type SnapshotStore struct {
	db     *surrealdb.DB
	logger *common.Logger
	limit  int
}

// NewSnapshotStore connects to SurrealDB and prepares the snapshot table.
func NewSnapshotStore(ctx context.Context, logger *common.Logger, config common.StorageConfig) (*SnapshotStore, error) {
	db, err := Connect(ctx, config)
	if err != nil {
		return nil, err
	}
	s, err := newSnapshotStore(ctx, db, logger, config.HistoryLimit)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Int("history_limit", s.limit).
		Msg("SurrealDB snapshot store initialized")

	return s, nil
}

func newSnapshotStore(ctx context.Context, db *surrealdb.DB, logger *common.Logger, limit int) (*SnapshotStore, error) {
	if err := defineTables(ctx, db); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return &SnapshotStore{db: db, logger: logger, limit: limit}, nil
}

// SaveSnapshot stores snapshot and prunes the session beyond the history limit.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, sessionID string, snapshot *models.DashboardModel) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	record := snapshotRecord{
		SessionID:   sessionID,
		Generation:  snapshot.Generation,
		GeneratedAt: snapshot.GeneratedAt,
		SavedAt:     time.Now().UTC(),
		Value:       string(data),
	}
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(snapshotTable, uuid.NewString()),
		"record": record,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if _, err := surrealdb.Query[[]snapshotRecord](ctx, s.db, sql, vars); err == nil {
			lastErr = nil
			break
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to save snapshot after retries: %w", lastErr)
	}

	if err := s.prune(ctx, sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to prune snapshot history")
	}
	return nil
}

// LatestSnapshot returns the most recently saved snapshot for the session.
func (s *SnapshotStore) LatestSnapshot(ctx context.Context, sessionID string) (*models.DashboardModel, error) {
	list, err := s.ListSnapshots(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNoSnapshot
	}
	return list[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (s *SnapshotStore) ListSnapshots(ctx context.Context, sessionID string, limit int) ([]*models.DashboardModel, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	sql := fmt.Sprintf("SELECT * FROM %s WHERE session_id = $session_id ORDER BY saved_at DESC LIMIT %d", snapshotTable, limit)
	vars := map[string]any{"session_id": sessionID}

	results, err := surrealdb.Query[[]snapshotRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	out := []*models.DashboardModel{}
	if results == nil || len(*results) == 0 {
		return out, nil
	}
	for _, rec := range (*results)[0].Result {
		var m models.DashboardModel
		if err := json.Unmarshal([]byte(rec.Value), &m); err != nil {
			s.logger.Warn().Err(err).Uint64("generation", rec.Generation).Msg("Skipping unreadable snapshot")
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

// prune deletes snapshots older than the newest s.limit for the session.
func (s *SnapshotStore) prune(ctx context.Context, sessionID string) error {
	sql := fmt.Sprintf("SELECT id, saved_at FROM %s WHERE session_id = $session_id ORDER BY saved_at DESC START %d", snapshotTable, s.limit)
	vars := map[string]any{"session_id": sessionID}

	results, err := surrealdb.Query[[]snapshotRef](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to find expired snapshots: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil
	}

	deleted := 0
	for _, ref := range (*results)[0].Result {
		if ref.ID == nil {
			continue
		}
		if _, err := surrealdb.Delete[snapshotRecord](ctx, s.db, *ref.ID); err != nil && !isNotFoundError(err) {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Debug().Int("deleted", deleted).Str("session_id", sessionID).Msg("Pruned snapshot history")
	}
	return nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close(context.Background())
}

func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}

var _ interfaces.SnapshotStore = (*SnapshotStore)(nil)
