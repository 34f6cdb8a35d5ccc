package guildsettings

import (
	"context"
	"fmt"
	"log"

	"replygate/db"
	"replygate/models"
)

// Defaults are the environment-derived settings used for guilds that have no
// persisted row, and to backfill unset fields on rows that do exist.
type Defaults struct {
	RandomReplyProbability float64
	GlobalReviewChannelID  string
	MaxReplyLength         int
}

type GuildSettingsService struct {
	repo     *db.PostgresGuildSettingsRepository
	defaults Defaults
}

func NewGuildSettingsService(repo *db.PostgresGuildSettingsRepository, defaults Defaults) *GuildSettingsService {
	return &GuildSettingsService{repo: repo, defaults: defaults}
}

// GetEffectiveSettings returns the guild's reply policy, falling back to the
// configured defaults when the guild has no persisted settings row.
func (s *GuildSettingsService) GetEffectiveSettings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild ID cannot be empty")
	}

	maybeSettings, err := s.repo.GetGuildSettingsByGuildID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}

	settings, ok := maybeSettings.Get()
	if !ok {
		return &models.GuildSettings{
			GuildID:                guildID,
			RepliesEnabled:         true,
			RandomReplyProbability: s.defaults.RandomReplyProbability,
			GlobalReviewChannelID:  s.defaults.GlobalReviewChannelID,
			MaxReplyLength:         s.defaults.MaxReplyLength,
		}, nil
	}

	if settings.MaxReplyLength <= 0 {
		settings.MaxReplyLength = s.defaults.MaxReplyLength
	}
	if settings.GlobalReviewChannelID == "" {
		settings.GlobalReviewChannelID = s.defaults.GlobalReviewChannelID
	}
	return settings, nil
}

// UpsertGuildSettings persists the given settings and returns the stored row.
func (s *GuildSettingsService) UpsertGuildSettings(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error) {
	log.Printf("📋 Starting to upsert guild settings for guild %s", settings.GuildID)

	if settings.GuildID == "" {
		return nil, fmt.Errorf("guild ID cannot be empty")
	}
	if settings.RandomReplyProbability < 0 || settings.RandomReplyProbability > 1 {
		return nil, fmt.Errorf("random reply probability must be between 0 and 1")
	}
	if settings.MaxReplyLength != 0 && settings.MaxReplyLength < 4 {
		return nil, fmt.Errorf("max reply length must be 0 (use default) or at least 4")
	}

	if err := s.repo.UpsertGuildSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to upsert guild settings: %w", err)
	}

	log.Printf("📋 Completed successfully - upserted settings for guild %s", settings.GuildID)
	return settings, nil
}
