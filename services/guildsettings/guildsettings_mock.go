package guildsettings

import (
	"context"

	"github.com/stretchr/testify/mock"

	"replygate/models"
)

type MockGuildSettingsService struct {
	mock.Mock
}

func (m *MockGuildSettingsService) GetEffectiveSettings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsService) UpsertGuildSettings(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error) {
	args := m.Called(ctx, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildSettings), args.Error(1)
}
