package dashboard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fidash/internal/models"
	"github.com/bobmcallan/fidash/internal/storage/memory"
)

const fixtureDir = "../../clients/fixture/testdata/2222222222"

func loadFixtureBundle(t *testing.T) models.RawToolBundle {
	t.Helper()
	bundle := models.RawToolBundle{}
	for _, tool := range models.AllTools {
		data, err := os.ReadFile(filepath.Join(fixtureDir, string(tool)+".json"))
		require.NoError(t, err)
		bundle[tool] = models.ToolResult{Raw: data}
	}
	return bundle
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Retrieve(ctx context.Context, tool models.ToolName) (json.RawMessage, error) {
	args := m.Called(ctx, tool)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockGateway) Name() string { return "mock" }

// staticFetcher returns the same bundle on every call.
type staticFetcher struct {
	bundle models.RawToolBundle
	calls  atomic.Int32
}

func (f *staticFetcher) FetchAll(ctx context.Context) models.RawToolBundle {
	f.calls.Add(1)
	return f.bundle
}

// gatedFetcher blocks each call until its gate is released.
type gatedFetcher struct {
	bundle  models.RawToolBundle
	entered chan int
	gates   []chan struct{}
	calls   atomic.Int32
}

func newGatedFetcher(bundle models.RawToolBundle, n int) *gatedFetcher {
	f := &gatedFetcher{bundle: bundle, entered: make(chan int, n)}
	for i := 0; i < n; i++ {
		f.gates = append(f.gates, make(chan struct{}))
	}
	return f
}

func (f *gatedFetcher) FetchAll(ctx context.Context) models.RawToolBundle {
	i := int(f.calls.Add(1)) - 1
	f.entered <- i
	<-f.gates[i]
	return f.bundle
}

// ctxFetcher behaves like the real fetcher under cancellation: every slot
// fails once the caller's context is done.
type ctxFetcher struct {
	bundle models.RawToolBundle
}

func (f *ctxFetcher) FetchAll(ctx context.Context) models.RawToolBundle {
	if err := ctx.Err(); err != nil {
		failed := models.RawToolBundle{}
		for _, tool := range models.AllTools {
			failed[tool] = models.ToolResult{Err: err}
		}
		return failed
	}
	return f.bundle
}

// orderedStore records the generation of every save and can hold the first
// save until released.
type orderedStore struct {
	*memory.Store
	mu       sync.Mutex
	saved    []uint64
	holdOnce sync.Once
	held     chan struct{}
	release  chan struct{}
}

func newOrderedStore() *orderedStore {
	return &orderedStore{
		Store:   memory.NewStore(10),
		held:    make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *orderedStore) SaveSnapshot(ctx context.Context, sessionID string, snap *models.DashboardModel) error {
	first := false
	s.holdOnce.Do(func() { first = true })
	if first {
		close(s.held)
		<-s.release
	}
	s.mu.Lock()
	s.saved = append(s.saved, snap.Generation)
	s.mu.Unlock()
	return s.Store.SaveSnapshot(ctx, sessionID, snap)
}

func (s *orderedStore) savedGenerations() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.saved...)
}
