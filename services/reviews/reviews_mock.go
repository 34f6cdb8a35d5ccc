package reviews

import (
	"context"

	"github.com/stretchr/testify/mock"

	"replygate/models"
)

type MockReviewsService struct {
	mock.Mock
}

func (m *MockReviewsService) RequestReview(ctx context.Context, req models.ReviewRequest) models.ReviewRequestOutcome {
	args := m.Called(ctx, req)
	return args.Get(0).(models.ReviewRequestOutcome)
}

func (m *MockReviewsService) Resolve(ctx context.Context, id string, action models.ReviewAction, actingUserTag string) models.ReviewResolution {
	args := m.Called(ctx, id, action, actingUserTag)
	return args.Get(0).(models.ReviewResolution)
}

func (m *MockReviewsService) ListPending() []*models.PendingReview {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*models.PendingReview)
}

func (m *MockReviewsService) Dispose() {
	m.Called()
}
