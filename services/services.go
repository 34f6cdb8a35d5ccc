package services

import (
	"context"

	"github.com/shopspring/decimal"

	"replygate/models"
)

// MentionGuardService classifies text for mass-mention risk
type MentionGuardService interface {
	Detect(text string) models.MentionDangerReport
}

// SanitizerService turns raw generated text into a safe, displayable string
// or an explicit rejection
type SanitizerService interface {
	Sanitize(raw string) models.SanitizationResult
	CollapseRepetitiveLines(lines []string) []string
}

// ReplyTrackerService is a bounded, TTL'd registry of message ids the bot
// has sent, used to recognize replies to the bot without a network call
type ReplyTrackerService interface {
	MarkSent(id, source string)
	Has(id string) bool
	Prune()
	Stats() models.ReplyTrackerStats
}

// TriggerService decides whether an inbound message should produce a reply
type TriggerService interface {
	Evaluate(ctx context.Context, event models.MessageEvent, botUserID string, randomProbability float64) models.TriggerDecision
}

// ReviewsService is the human-in-the-loop gate for sends that could ping
// large audiences
type ReviewsService interface {
	RequestReview(ctx context.Context, req models.ReviewRequest) models.ReviewRequestOutcome
	Resolve(ctx context.Context, id string, action models.ReviewAction, actingUserTag string) models.ReviewResolution
	ListPending() []*models.PendingReview
	Dispose()
}

// DeliveryService orchestrates a primary send and a fallback notice so the
// requesting user always receives some visible response
type DeliveryService interface {
	Deliver(ctx context.Context, req models.DeliveryRequest) models.DeliveryOutcome
}

// GuildSettingsService provides the per-guild reply policy
type GuildSettingsService interface {
	GetEffectiveSettings(ctx context.Context, guildID string) (*models.GuildSettings, error)
	UpsertGuildSettings(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error)
}

// UsageCostService accounts for completion token usage per guild
type UsageCostService interface {
	RecordCompletionUsage(ctx context.Context, guildID string, usage models.CompletionUsage) (*models.UsageCost, error)
	GetRecentUsage(ctx context.Context, guildID string, limit int) ([]*models.UsageCost, error)
	GetTotalSpend(ctx context.Context, guildID string) (decimal.Decimal, error)
}

// TransactionManager runs a function inside a context-bound database
// transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
