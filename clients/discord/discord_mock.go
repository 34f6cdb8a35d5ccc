package discord

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"replygate/clients"
)

type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) GetBotUser() (*clients.BotUser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.BotUser), args.Error(1)
}

func (m *MockChatClient) SendMessage(
	ctx context.Context,
	channelID, content string,
	opts clients.SendMessageOptions,
) (*clients.SentMessage, error) {
	args := m.Called(ctx, channelID, content, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.SentMessage), args.Error(1)
}

func (m *MockChatClient) FetchMessage(
	ctx context.Context,
	channelID, messageID string,
) (mo.Option[*clients.FetchedMessage], error) {
	args := m.Called(ctx, channelID, messageID)
	if args.Get(0) == nil {
		return mo.None[*clients.FetchedMessage](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*clients.FetchedMessage]), args.Error(1)
}

func (m *MockChatClient) EditMessage(
	ctx context.Context,
	channelID, messageID, newContent string,
	clearComponents bool,
) error {
	args := m.Called(ctx, channelID, messageID, newContent, clearComponents)
	return args.Error(0)
}
