package server

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/bobmcallan/fidash/internal/models"
)

type mockDashboard struct {
	mock.Mock
}

func (m *mockDashboard) Current() (*models.DashboardModel, error) {
	args := m.Called()
	snap, _ := args.Get(0).(*models.DashboardModel)
	return snap, args.Error(1)
}

func (m *mockDashboard) Refresh(ctx context.Context) (*models.DashboardModel, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*models.DashboardModel)
	return snap, args.Error(1)
}

func (m *mockDashboard) History(ctx context.Context, limit int) ([]*models.DashboardModel, error) {
	args := m.Called(ctx, limit)
	snaps, _ := args.Get(0).([]*models.DashboardModel)
	return snaps, args.Error(1)
}

func (m *mockDashboard) RawTool(ctx context.Context, tool models.ToolName) (json.RawMessage, error) {
	args := m.Called(ctx, tool)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}
