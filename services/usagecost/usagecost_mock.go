package usagecost

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"replygate/models"
)

type MockUsageCostService struct {
	mock.Mock
}

func (m *MockUsageCostService) RecordCompletionUsage(ctx context.Context, guildID string, usage models.CompletionUsage) (*models.UsageCost, error) {
	args := m.Called(ctx, guildID, usage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageCost), args.Error(1)
}

func (m *MockUsageCostService) GetRecentUsage(ctx context.Context, guildID string, limit int) ([]*models.UsageCost, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UsageCost), args.Error(1)
}

func (m *MockUsageCostService) GetTotalSpend(ctx context.Context, guildID string) (decimal.Decimal, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
