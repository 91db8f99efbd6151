// Package dashboard builds and publishes dashboard snapshots.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
	"github.com/bobmcallan/fidash/internal/services/normalize"
)

// Fetcher retrieves every tool for one refresh.
type Fetcher interface {
	FetchAll(ctx context.Context) models.RawToolBundle
}

// Service implements interfaces.DashboardService.
//
// Each Refresh takes a generation number when it starts. Only the refresh
// holding the latest generation may publish; older ones finish and are
// discarded with models.ErrSuperseded. Readers load the published snapshot
// atomically and never observe a partially built model.
type Service struct {
	gateway      interfaces.Gateway
	fetcher      Fetcher
	normalizer   *normalize.Normalizer
	store        interfaces.SnapshotStore
	sessionID    string
	historyLimit int
	now          func() time.Time
	logger       *common.Logger

	initiated atomic.Uint64
	mu        sync.Mutex // serializes publish and persist
	published uint64
	current   atomic.Pointer[models.DashboardModel]
}

var _ interfaces.DashboardService = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for cash flow and GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSessionID sets the key snapshots are stored under.
func WithSessionID(id string) Option {
	return func(s *Service) { s.sessionID = id }
}

// WithHistoryLimit caps History when the caller passes no limit.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// NewService creates a dashboard service. store may be nil.
func NewService(gateway interfaces.Gateway, fetcher Fetcher, store interfaces.SnapshotStore, logger *common.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		gateway:      gateway,
		fetcher:      fetcher,
		normalizer:   normalize.NewNormalizer(logger),
		store:        store,
		sessionID:    "default",
		historyLimit: 50,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the active snapshot.
func (s *Service) Current() (*models.DashboardModel, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return nil, models.ErrNoSnapshot
}

// Refresh retrieves all tools, rebuilds the dashboard and publishes it.
// A refresh whose context ends before the fetch completes publishes nothing
// and returns the context error, leaving the active snapshot in place.
func (s *Service) Refresh(ctx context.Context) (*models.DashboardModel, error) {
	gen := s.initiated.Add(1)
	start := time.Now()

	raw := s.fetcher.FetchAll(ctx)
	if err := ctx.Err(); err != nil {
		s.logger.Info().
			Uint64("generation", gen).
			Err(err).
			Msg("Refresh abandoned, keeping active snapshot")
		return nil, fmt.Errorf("refresh abandoned: %w", err)
	}
	snapshot := s.build(raw, gen)

	if !s.publish(context.WithoutCancel(ctx), gen, snapshot) {
		s.logger.Info().
			Uint64("generation", gen).
			Uint64("latest", s.initiated.Load()).
			Msg("Refresh superseded, snapshot discarded")
		return snapshot, models.ErrSuperseded
	}

	event := s.logger.Info().
		Uint64("generation", gen).
		Dur("duration", time.Since(start)).
		Int("transactions", len(snapshot.Transactions))
	if degraded := snapshot.Degraded(); len(degraded) > 0 {
		event = event.Interface("degraded", degraded)
	}
	event.Msg("Dashboard refreshed")

	return snapshot, nil
}

func (s *Service) build(raw models.RawToolBundle, gen uint64) *models.DashboardModel {
	bundle := s.normalizer.Normalize(raw)
	snapshot := Aggregate(bundle, s.now())
	snapshot.Generation = gen
	return snapshot
}

// publish installs snapshot if gen is still the most recently initiated
// refresh, then persists it. Saving under the lock keeps stored snapshots in
// publish order.
func (s *Service) publish(ctx context.Context, gen uint64, snapshot *models.DashboardModel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.initiated.Load() || gen <= s.published {
		return false
	}
	s.published = gen
	s.current.Store(snapshot)

	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, s.sessionID, snapshot); err != nil {
			s.logger.Warn().Err(err).Uint64("generation", gen).Msg("Failed to persist snapshot")
		}
	}
	return true
}

// Restore seeds the active snapshot from the store so a restarted server has
// something to show before its first refresh. Generations continue from the
// restored value.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.LatestSnapshot(ctx, s.sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNoSnapshot) {
			return nil
		}
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initiated.CompareAndSwap(0, snap.Generation) {
		return nil
	}
	s.published = snap.Generation
	s.current.Store(snap)
	s.logger.Info().Uint64("generation", snap.Generation).Time("generated_at", snap.GeneratedAt).Msg("Restored dashboard snapshot")
	return nil
}

// History returns stored snapshots, newest first. Without a store only the
// active snapshot is available.
func (s *Service) History(ctx context.Context, limit int) ([]*models.DashboardModel, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	if s.store == nil {
		if snap := s.current.Load(); snap != nil {
			return []*models.DashboardModel{snap}, nil
		}
		return []*models.DashboardModel{}, nil
	}
	return s.store.ListSnapshots(ctx, s.sessionID, limit)
}

// RawTool returns one tool's payload exactly as the gateway delivered it.
func (s *Service) RawTool(ctx context.Context, tool models.ToolName) (json.RawMessage, error) {
	if !models.ValidToolName(string(tool)) {
		return nil, fmt.Errorf("unknown tool %q", tool)
	}
	raw, err := s.gateway.Retrieve(ctx, tool)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s: %w", tool, err)
	}
	return raw, nil
}
