package guildsettings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"replygate/models"
)

func TestUpsertGuildSettingsValidation(t *testing.T) {
	// Validation happens before any repository access.
	service := NewGuildSettingsService(nil, Defaults{})

	t.Run("empty guild id", func(t *testing.T) {
		_, err := service.UpsertGuildSettings(context.Background(), &models.GuildSettings{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "guild ID")
	})

	t.Run("probability out of range", func(t *testing.T) {
		_, err := service.UpsertGuildSettings(context.Background(), &models.GuildSettings{
			GuildID:                "guild_1",
			RandomReplyProbability: 1.5,
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "probability")
	})

	t.Run("max reply length too small to hold a reply", func(t *testing.T) {
		_, err := service.UpsertGuildSettings(context.Background(), &models.GuildSettings{
			GuildID:        "guild_1",
			MaxReplyLength: 2,
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max reply length")
	})

	t.Run("negative max reply length", func(t *testing.T) {
		_, err := service.UpsertGuildSettings(context.Background(), &models.GuildSettings{
			GuildID:        "guild_1",
			MaxReplyLength: -1,
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max reply length")
	})
}
