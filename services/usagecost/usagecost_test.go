package usagecost

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"replygate/models"
	"replygate/services/txmanager"
)

func TestPriceCompletion(t *testing.T) {
	tests := []struct {
		name     string
		usage    models.CompletionUsage
		expected string
	}{
		{
			name: "sonnet pricing",
			usage: models.CompletionUsage{
				Model:        "claude-sonnet-4-20250514",
				InputTokens:  1_000_000,
				OutputTokens: 1_000_000,
			},
			expected: "18",
		},
		{
			name: "haiku pricing",
			usage: models.CompletionUsage{
				Model:        "claude-3-5-haiku-20241022",
				InputTokens:  500_000,
				OutputTokens: 250_000,
			},
			expected: "1.4",
		},
		{
			name: "unknown model falls back to default pricing",
			usage: models.CompletionUsage{
				Model:        "claude-experimental",
				InputTokens:  1_000_000,
				OutputTokens: 0,
			},
			expected: "3",
		},
		{
			name:     "zero usage costs nothing",
			usage:    models.CompletionUsage{Model: "claude-sonnet-4-20250514"},
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected, err := decimal.NewFromString(tt.expected)
			assert.NoError(t, err)
			assert.True(t, priceCompletion(tt.usage).Equal(expected),
				"got %s, want %s", priceCompletion(tt.usage), expected)
		})
	}
}

func TestRecordCompletionUsageRunsInOneTransaction(t *testing.T) {
	txManager := new(txmanager.MockTransactionManager)
	txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	service := NewUsageCostService(txManager, nil, nil)

	cost, err := service.RecordCompletionUsage(context.Background(), "guild_1", models.CompletionUsage{
		Model:        "claude-sonnet-4-20250514",
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	})

	assert.NoError(t, err)
	assert.Equal(t, "guild_1", cost.GuildID)
	assert.True(t, cost.CostUSD.Equal(decimal.NewFromInt(18)))
	txManager.AssertExpectations(t)
}

func TestRecordCompletionUsageRequiresGuildID(t *testing.T) {
	txManager := new(txmanager.MockTransactionManager)
	service := NewUsageCostService(txManager, nil, nil)

	_, err := service.RecordCompletionUsage(context.Background(), "", models.CompletionUsage{})

	assert.Error(t, err)
	txManager.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
}
