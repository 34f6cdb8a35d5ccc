package trigger

import (
	"context"

	"github.com/stretchr/testify/mock"

	"replygate/models"
)

type MockTriggerService struct {
	mock.Mock
}

func (m *MockTriggerService) Evaluate(ctx context.Context, event models.MessageEvent, botUserID string, randomProbability float64) models.TriggerDecision {
	args := m.Called(ctx, event, botUserID, randomProbability)
	return args.Get(0).(models.TriggerDecision)
}
