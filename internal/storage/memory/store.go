// Package memory keeps dashboard snapshot history in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
)

// Store is a bounded per-session snapshot history.
// Snapshots are immutable so the store keeps pointers, not copies.
type Store struct {
	mu       sync.RWMutex
	limit    int
	sessions map[string][]*models.DashboardModel // oldest first
}

// NewStore creates a Store keeping at most limit snapshots per session.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 50
	}
	return &Store{limit: limit, sessions: make(map[string][]*models.DashboardModel)}
}

func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, snapshot *models.DashboardModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.sessions[sessionID], snapshot)
	if over := len(list) - s.limit; over > 0 {
		list = append([]*models.DashboardModel(nil), list[over:]...)
	}
	s.sessions[sessionID] = list
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context, sessionID string) (*models.DashboardModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.sessions[sessionID]
	if len(list) == 0 {
		return nil, models.ErrNoSnapshot
	}
	return list[len(list)-1], nil
}

func (s *Store) ListSnapshots(ctx context.Context, sessionID string, limit int) ([]*models.DashboardModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.sessions[sessionID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]*models.DashboardModel, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

var _ interfaces.SnapshotStore = (*Store)(nil)
