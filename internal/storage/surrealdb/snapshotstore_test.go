package surrealdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fidash/internal/models"
)

func sampleSnapshot(gen uint64) *models.DashboardModel {
	return &models.DashboardModel{
		Generation:  gen,
		GeneratedAt: time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC),
		NetWorth:    803374.5,
		BankBalance: 39250,
		CashFlow:    -23450,
		Transactions: []models.TransactionRecord{{
			Bank:         "HDFC Bank",
			Amount:       300,
			Narration:    "UPI/ZOMATO/ORDER",
			Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Direction:    models.DirectionDebit,
			Mode:         "UPI",
			BalanceAfter: 52449.5,
		}},
		Assets:        models.AssetAllocation{"MUTUAL FUND": 84642},
		Liabilities:   models.AssetAllocation{},
		CategorySpend: models.CategorySpend{"UPI Payments": 300},
		MonthlySeries: []models.MonthlyBucket{{MonthKey: "2024-01", Credits: 75000, Debits: 29550.5}},
		Stats:         models.DashboardStats{CreditAccounts: 4, CreditScore: 746},
		Sources:       map[models.ToolName]models.SourceStatus{models.ToolNetWorth: {OK: true}},
	}
}

func newTestStore(t *testing.T, limit int) *SnapshotStore {
	t.Helper()
	store, err := newSnapshotStore(context.Background(), testDB(t), testLogger(), limit)
	require.NoError(t, err)
	return store
}

func TestSnapshotStore_SaveAndLatest(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	want := sampleSnapshot(1)
	require.NoError(t, store.SaveSnapshot(ctx, "session-1", want))

	got, err := store.LatestSnapshot(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSnapshotStore_LatestNotFound(t *testing.T) {
	store := newTestStore(t, 10)

	_, err := store.LatestSnapshot(context.Background(), "nobody")
	assert.True(t, errors.Is(err, models.ErrNoSnapshot))
}

func TestSnapshotStore_ListNewestFirstPerSession(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	for gen := uint64(1); gen <= 3; gen++ {
		require.NoError(t, store.SaveSnapshot(ctx, "session-1", sampleSnapshot(gen)))
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, store.SaveSnapshot(ctx, "session-2", sampleSnapshot(99)))

	list, err := store.ListSnapshots(ctx, "session-1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(3), list[0].Generation)
	assert.Equal(t, uint64(2), list[1].Generation)
}

func TestSnapshotStore_PrunesBeyondLimit(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	for gen := uint64(1); gen <= 4; gen++ {
		require.NoError(t, store.SaveSnapshot(ctx, "session-1", sampleSnapshot(gen)))
		time.Sleep(5 * time.Millisecond)
	}

	list, err := store.ListSnapshots(ctx, "session-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(4), list[0].Generation)
	assert.Equal(t, uint64(3), list[1].Generation)
}
