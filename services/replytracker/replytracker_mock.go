package replytracker

import (
	"github.com/stretchr/testify/mock"

	"replygate/models"
)

type MockReplyTrackerService struct {
	mock.Mock
}

func (m *MockReplyTrackerService) MarkSent(id, source string) {
	m.Called(id, source)
}

func (m *MockReplyTrackerService) Has(id string) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockReplyTrackerService) Prune() {
	m.Called()
}

func (m *MockReplyTrackerService) Stats() models.ReplyTrackerStats {
	args := m.Called()
	return args.Get(0).(models.ReplyTrackerStats)
}
