package sanitizer

import (
	"github.com/stretchr/testify/mock"

	"replygate/models"
)

type MockSanitizerService struct {
	mock.Mock
}

func (m *MockSanitizerService) Sanitize(raw string) models.SanitizationResult {
	args := m.Called(raw)
	return args.Get(0).(models.SanitizationResult)
}

func (m *MockSanitizerService) CollapseRepetitiveLines(lines []string) []string {
	args := m.Called(lines)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}
