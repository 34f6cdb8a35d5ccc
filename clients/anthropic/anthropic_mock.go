package anthropic

import (
	"context"

	"github.com/stretchr/testify/mock"

	"replygate/clients"
)

type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) GenerateCompletion(
	ctx context.Context,
	systemText, userText string,
	opts clients.CompletionOptions,
) (*clients.CompletionResult, error) {
	args := m.Called(ctx, systemText, userText, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.CompletionResult), args.Error(1)
}
