package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"replygate/core"
	dbtx "replygate/db/tx"
	"replygate/models"
)

type PostgresGuildSettingsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for guild_settings table
var guildSettingsColumns = []string{
	"id",
	"guild_id",
	"replies_enabled",
	"random_reply_probability",
	"review_channel_id",
	"global_review_channel_id",
	"max_reply_length",
	"total_cost_usd",
	"created_at",
	"updated_at",
}

func NewPostgresGuildSettingsRepository(db *sqlx.DB, schema string) *PostgresGuildSettingsRepository {
	return &PostgresGuildSettingsRepository{db: db, schema: schema}
}

func (r *PostgresGuildSettingsRepository) GetGuildSettingsByGuildID(
	ctx context.Context,
	guildID string,
) (mo.Option[*models.GuildSettings], error) {
	db := dbtx.Active(ctx, r.db)

	columnsStr := strings.Join(guildSettingsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.guild_settings
		WHERE guild_id = $1`,
		columnsStr, r.schema)

	settings := &models.GuildSettings{}
	err := db.QueryRowxContext(ctx, query, guildID).StructScan(settings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.GuildSettings](), nil
		}
		return mo.None[*models.GuildSettings](), fmt.Errorf("failed to get guild settings: %w", err)
	}

	return mo.Some(settings), nil
}

func (r *PostgresGuildSettingsRepository) UpsertGuildSettings(
	ctx context.Context,
	settings *models.GuildSettings,
) error {
	db := dbtx.Active(ctx, r.db)

	if settings.ID == "" {
		settings.ID = core.NewID("gs")
	}

	returningStr := strings.Join(guildSettingsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.guild_settings (
			id, guild_id, replies_enabled, random_reply_probability,
			review_channel_id, global_review_channel_id, max_reply_length
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (guild_id)
		DO UPDATE SET
			replies_enabled = EXCLUDED.replies_enabled,
			random_reply_probability = EXCLUDED.random_reply_probability,
			review_channel_id = EXCLUDED.review_channel_id,
			global_review_channel_id = EXCLUDED.global_review_channel_id,
			max_reply_length = EXCLUDED.max_reply_length,
			updated_at = NOW()
		RETURNING %s
	`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		settings.ID, settings.GuildID, settings.RepliesEnabled, settings.RandomReplyProbability,
		settings.ReviewChannelID, settings.GlobalReviewChannelID, settings.MaxReplyLength,
	).StructScan(settings)
	if err != nil {
		return fmt.Errorf("failed to upsert guild settings: %w", err)
	}

	return nil
}

// AddToTotalCost adds delta to the guild's running completion spend. Guilds
// without a persisted settings row are skipped silently.
func (r *PostgresGuildSettingsRepository) AddToTotalCost(
	ctx context.Context,
	guildID string,
	delta decimal.Decimal,
) error {
	db := dbtx.Active(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.guild_settings
		SET total_cost_usd = total_cost_usd + $2,
			updated_at = NOW()
		WHERE guild_id = $1`, r.schema)

	if _, err := db.ExecContext(ctx, query, guildID, delta); err != nil {
		return fmt.Errorf("failed to add to guild total cost: %w", err)
	}

	return nil
}
