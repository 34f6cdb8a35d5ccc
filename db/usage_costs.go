package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"replygate/core"
	dbtx "replygate/db/tx"
	"replygate/models"
)

type PostgresUsageCostsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for usage_costs table
var usageCostColumns = []string{
	"id",
	"guild_id",
	"model",
	"input_tokens",
	"output_tokens",
	"cost_usd",
	"created_at",
}

func NewPostgresUsageCostsRepository(db *sqlx.DB, schema string) *PostgresUsageCostsRepository {
	return &PostgresUsageCostsRepository{db: db, schema: schema}
}

func (r *PostgresUsageCostsRepository) CreateUsageCost(
	ctx context.Context,
	cost *models.UsageCost,
) error {
	db := dbtx.Active(ctx, r.db)

	if cost.ID == "" {
		cost.ID = core.NewID("uc")
	}

	columnsStr := strings.Join(usageCostColumns[:6], ", ")
	returningStr := strings.Join(usageCostColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.usage_costs (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, r.schema, columnsStr, returningStr)

	err := db.QueryRowxContext(ctx, query,
		cost.ID, cost.GuildID, cost.Model,
		cost.InputTokens, cost.OutputTokens, cost.CostUSD).StructScan(cost)
	if err != nil {
		return fmt.Errorf("failed to create usage cost: %w", err)
	}

	return nil
}

func (r *PostgresUsageCostsRepository) GetRecentUsageCosts(
	ctx context.Context,
	guildID string,
	limit int,
) ([]*models.UsageCost, error) {
	db := dbtx.Active(ctx, r.db)

	columnsStr := strings.Join(usageCostColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.usage_costs
		WHERE guild_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		columnsStr, r.schema)

	var costs []*models.UsageCost
	if err := db.SelectContext(ctx, &costs, query, guildID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent usage costs: %w", err)
	}

	return costs, nil
}

func (r *PostgresUsageCostsRepository) GetTotalCostForGuild(
	ctx context.Context,
	guildID string,
) (decimal.Decimal, error) {
	db := dbtx.Active(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(cost_usd), 0)
		FROM %s.usage_costs
		WHERE guild_id = $1`, r.schema)

	var total decimal.Decimal
	if err := db.QueryRowxContext(ctx, query, guildID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total cost for guild: %w", err)
	}

	return total, nil
}
