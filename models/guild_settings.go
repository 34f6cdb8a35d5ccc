package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuildSettings is the per-guild reply policy. Guilds without a persisted row
// fall back to the environment-derived defaults.
type GuildSettings struct {
	ID                     string          `db:"id"                       json:"id"`
	GuildID                string          `db:"guild_id"                 json:"guild_id"`
	RepliesEnabled         bool            `db:"replies_enabled"          json:"replies_enabled"`
	RandomReplyProbability float64         `db:"random_reply_probability" json:"random_reply_probability"`
	ReviewChannelID        string          `db:"review_channel_id"        json:"review_channel_id"`
	GlobalReviewChannelID  string          `db:"global_review_channel_id" json:"global_review_channel_id"`
	MaxReplyLength         int             `db:"max_reply_length"         json:"max_reply_length"`
	TotalCostUSD           decimal.Decimal `db:"total_cost_usd"           json:"total_cost_usd"`
	CreatedAt              time.Time       `db:"created_at"               json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at"               json:"updated_at"`
}

// ReviewDestinations returns the configured review channels, guild-scoped
// first, skipping whichever is unset.
func (s *GuildSettings) ReviewDestinations() []ReviewDestination {
	var destinations []ReviewDestination
	if s.ReviewChannelID != "" {
		destinations = append(destinations, ReviewDestination{ChannelID: s.ReviewChannelID, Scope: ReviewScopeGuild})
	}
	if s.GlobalReviewChannelID != "" && s.GlobalReviewChannelID != s.ReviewChannelID {
		destinations = append(destinations, ReviewDestination{ChannelID: s.GlobalReviewChannelID, Scope: ReviewScopeGlobal})
	}
	return destinations
}
