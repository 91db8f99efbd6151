package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/models"
	"github.com/bobmcallan/fidash/internal/storage/memory"
)

var fixedNow = func() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) }

func newTestService(f Fetcher, opts ...Option) (*Service, *memory.Store) {
	store := memory.NewStore(10)
	opts = append([]Option{WithClock(fixedNow), WithSessionID("session-1")}, opts...)
	return NewService(&mockGateway{}, f, store, common.NewSilentLogger(), opts...), store
}

func TestService_CurrentBeforeRefresh(t *testing.T) {
	svc, _ := newTestService(&staticFetcher{})
	_, err := svc.Current()
	assert.True(t, errors.Is(err, models.ErrNoSnapshot))
}

func TestService_RefreshPublishesAndPersists(t *testing.T) {
	svc, store := newTestService(&staticFetcher{bundle: loadFixtureBundle(t)})

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, fixedNow(), snap.GeneratedAt)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, snap, current)

	stored, err := store.LatestSnapshot(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.Generation)
}

func TestService_SequentialRefreshesReplaceSnapshot(t *testing.T) {
	svc, _ := newTestService(&staticFetcher{bundle: loadFixtureBundle(t)})

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, uint64(2), second.Generation)
	current, _ := svc.Current()
	assert.Same(t, second, current)
	// The earlier snapshot is untouched by the later refresh.
	assert.Equal(t, uint64(1), first.Generation)
}

func TestService_NewerRefreshWinsWhenOlderFinishesLast(t *testing.T) {
	f := newGatedFetcher(loadFixtureBundle(t), 2)
	svc, _ := newTestService(f)

	type result struct {
		snap *models.DashboardModel
		err  error
	}
	older := make(chan result, 1)
	go func() {
		snap, err := svc.Refresh(context.Background())
		older <- result{snap, err}
	}()
	require.Equal(t, 0, <-f.entered)

	newer := make(chan result, 1)
	go func() {
		snap, err := svc.Refresh(context.Background())
		newer <- result{snap, err}
	}()
	require.Equal(t, 1, <-f.entered)

	close(f.gates[1])
	n := <-newer
	require.NoError(t, n.err)
	assert.Equal(t, uint64(2), n.snap.Generation)

	close(f.gates[0])
	o := <-older
	assert.True(t, errors.Is(o.err, models.ErrSuperseded))
	assert.Equal(t, uint64(1), o.snap.Generation)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current.Generation)
}

func TestService_OlderRefreshFinishingFirstIsDiscarded(t *testing.T) {
	f := newGatedFetcher(loadFixtureBundle(t), 2)
	svc, store := newTestService(f)

	older := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		older <- err
	}()
	<-f.entered

	newer := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		newer <- err
	}()
	<-f.entered

	close(f.gates[0])
	assert.True(t, errors.Is(<-older, models.ErrSuperseded))
	_, err := svc.Current()
	assert.True(t, errors.Is(err, models.ErrNoSnapshot))

	close(f.gates[1])
	require.NoError(t, <-newer)
	current, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current.Generation)

	history, err := store.ListSnapshots(context.Background(), "session-1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestService_RestoreSeedsGeneration(t *testing.T) {
	svc, store := newTestService(&staticFetcher{bundle: loadFixtureBundle(t)})
	require.NoError(t, store.SaveSnapshot(context.Background(), "session-1", &models.DashboardModel{Generation: 7}))

	require.NoError(t, svc.Restore(context.Background()))
	current, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), current.Generation)

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(8), snap.Generation)
}

func TestService_RestoreWithEmptyStore(t *testing.T) {
	svc, _ := newTestService(&staticFetcher{})
	require.NoError(t, svc.Restore(context.Background()))
	_, err := svc.Current()
	assert.True(t, errors.Is(err, models.ErrNoSnapshot))
}

func TestService_HistoryWithoutStore(t *testing.T) {
	svc := NewService(&mockGateway{}, &staticFetcher{bundle: loadFixtureBundle(t)}, nil, nil, WithClock(fixedNow))

	history, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	history, err = svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestService_HistoryNewestFirst(t *testing.T) {
	svc, _ := newTestService(&staticFetcher{bundle: loadFixtureBundle(t)})
	for i := 0; i < 3; i++ {
		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, uint64(3), history[0].Generation)
	assert.Equal(t, uint64(2), history[1].Generation)
}

func TestService_RawTool(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Retrieve", mock.Anything, models.ToolEPFDetails).Return(json.RawMessage(`{"uanAccounts":[]}`), nil)
	gw.On("Retrieve", mock.Anything, models.ToolNetWorth).Return(nil, models.ErrNoSession)
	svc := NewService(gw, &staticFetcher{}, nil, nil)

	raw, err := svc.RawTool(context.Background(), models.ToolEPFDetails)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uanAccounts":[]}`, string(raw))

	_, err = svc.RawTool(context.Background(), models.ToolNetWorth)
	assert.True(t, errors.Is(err, models.ErrNoSession))

	_, err = svc.RawTool(context.Background(), "fetch_everything")
	assert.Error(t, err)

	gw.AssertExpectations(t)
}

func TestService_CancelledRefreshKeepsActiveSnapshot(t *testing.T) {
	svc, store := newTestService(&ctxFetcher{bundle: loadFixtureBundle(t)})

	good, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 803374.5, good.NetWorth, 1e-9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, err := svc.Refresh(ctx)
	assert.Nil(t, snap)
	assert.True(t, errors.Is(err, context.Canceled))

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, good, current)

	stored, err := store.LatestSnapshot(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, good.Generation, stored.Generation)
	assert.InDelta(t, 803374.5, stored.NetWorth, 1e-9)

	// the next refresh publishes normally
	next, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Greater(t, next.Generation, good.Generation)
}

func TestService_ExpiredDeadlineKeepsActiveSnapshot(t *testing.T) {
	svc, _ := newTestService(&ctxFetcher{bundle: loadFixtureBundle(t)})

	good, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = svc.Refresh(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, good, current)
}

func TestService_SnapshotsPersistInPublishOrder(t *testing.T) {
	store := newOrderedStore()
	svc := NewService(&mockGateway{}, &staticFetcher{bundle: loadFixtureBundle(t)}, store, common.NewSilentLogger(),
		WithClock(fixedNow), WithSessionID("session-1"))

	first := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		first <- err
	}()
	<-store.held

	second := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		second <- err
	}()

	// generation 2 cannot publish or save while generation 1 is persisting
	assert.Never(t, func() bool { return len(second) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	close(store.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	assert.Equal(t, []uint64{1, 2}, store.savedGenerations())
	latest, err := store.LatestSnapshot(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest.Generation)
}
