package usagecost

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"replygate/db"
	"replygate/models"
	"replygate/services"
)

// modelPricing is USD per million tokens.
type modelPricing struct {
	inputPerMTok  decimal.Decimal
	outputPerMTok decimal.Decimal
}

var (
	defaultPricing = modelPricing{
		inputPerMTok:  decimal.NewFromInt(3),
		outputPerMTok: decimal.NewFromInt(15),
	}

	pricingByModel = map[string]modelPricing{
		"claude-sonnet-4-20250514": {
			inputPerMTok:  decimal.NewFromInt(3),
			outputPerMTok: decimal.NewFromInt(15),
		},
		"claude-3-5-haiku-20241022": {
			inputPerMTok:  decimal.NewFromFloat(0.8),
			outputPerMTok: decimal.NewFromInt(4),
		},
		"claude-opus-4-20250514": {
			inputPerMTok:  decimal.NewFromInt(15),
			outputPerMTok: decimal.NewFromInt(75),
		},
	}

	million = decimal.NewFromInt(1_000_000)
)

type UsageCostService struct {
	txManager    services.TransactionManager
	costsRepo    *db.PostgresUsageCostsRepository
	settingsRepo *db.PostgresGuildSettingsRepository
}

func NewUsageCostService(
	txManager services.TransactionManager,
	costsRepo *db.PostgresUsageCostsRepository,
	settingsRepo *db.PostgresGuildSettingsRepository,
) *UsageCostService {
	return &UsageCostService{
		txManager:    txManager,
		costsRepo:    costsRepo,
		settingsRepo: settingsRepo,
	}
}

// RecordCompletionUsage prices one completion call and persists it: the cost
// row and the guild's running total are written in one transaction.
func (s *UsageCostService) RecordCompletionUsage(ctx context.Context, guildID string, usage models.CompletionUsage) (*models.UsageCost, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild ID cannot be empty")
	}

	cost := &models.UsageCost{
		GuildID:      guildID,
		Model:        usage.Model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		CostUSD:      priceCompletion(usage),
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.costsRepo.CreateUsageCost(ctx, cost); err != nil {
			return fmt.Errorf("failed to create usage cost: %w", err)
		}
		if err := s.settingsRepo.AddToTotalCost(ctx, guildID, cost.CostUSD); err != nil {
			return fmt.Errorf("failed to update guild total cost: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("💰 Recorded %s usage for guild %s: %d in / %d out tokens, $%s",
		usage.Model, guildID, usage.InputTokens, usage.OutputTokens, cost.CostUSD.StringFixed(6))
	return cost, nil
}

// GetRecentUsage returns the guild's most recent completion cost rows.
func (s *UsageCostService) GetRecentUsage(ctx context.Context, guildID string, limit int) ([]*models.UsageCost, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild ID cannot be empty")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.costsRepo.GetRecentUsageCosts(ctx, guildID, limit)
}

// GetTotalSpend returns the guild's cumulative completion spend, summed over
// all persisted cost rows.
func (s *UsageCostService) GetTotalSpend(ctx context.Context, guildID string) (decimal.Decimal, error) {
	if guildID == "" {
		return decimal.Zero, fmt.Errorf("guild ID cannot be empty")
	}
	return s.costsRepo.GetTotalCostForGuild(ctx, guildID)
}

func priceCompletion(usage models.CompletionUsage) decimal.Decimal {
	pricing, ok := pricingByModel[usage.Model]
	if !ok {
		pricing = defaultPricing
	}

	inputCost := decimal.NewFromInt(int64(usage.InputTokens)).Mul(pricing.inputPerMTok).Div(million)
	outputCost := decimal.NewFromInt(int64(usage.OutputTokens)).Mul(pricing.outputPerMTok).Div(million)
	return inputCost.Add(outputCost)
}
