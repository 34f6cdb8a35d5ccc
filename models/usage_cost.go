package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompletionUsage is the token accounting reported by one completion call.
type CompletionUsage struct {
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// UsageCost records the estimated cost of one completion call for a guild.
type UsageCost struct {
	ID           string          `db:"id"            json:"id"`
	GuildID      string          `db:"guild_id"      json:"guild_id"`
	Model        string          `db:"model"         json:"model"`
	InputTokens  int             `db:"input_tokens"  json:"input_tokens"`
	OutputTokens int             `db:"output_tokens" json:"output_tokens"`
	CostUSD      decimal.Decimal `db:"cost_usd"      json:"cost_usd"`
	CreatedAt    time.Time       `db:"created_at"    json:"created_at"`
}

// TotalTokens returns the sum of input and output tokens
func (u *UsageCost) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}
