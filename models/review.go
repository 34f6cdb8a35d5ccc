package models

import (
	"strings"
	"time"
)

type ReviewScope string

const (
	ReviewScopeGuild  ReviewScope = "guild"
	ReviewScopeGlobal ReviewScope = "global"
)

type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// ReviewDestination is a channel a review artifact should be posted to.
type ReviewDestination struct {
	ChannelID string      `json:"channel_id"`
	Scope     ReviewScope `json:"scope"`
}

// ReviewArtifact is one posted review message carrying the approve/reject
// affordance for a pending entry.
type ReviewArtifact struct {
	ChannelID string      `json:"channel_id"`
	MessageID string      `json:"message_id"`
	Scope     ReviewScope `json:"scope"`
}

// ReviewRequest is the input to the mention-review workflow.
type ReviewRequest struct {
	GuildID             string              `json:"guild_id"`
	Destinations        []ReviewDestination `json:"destinations"`
	TargetChannelID     string              `json:"target_channel_id"`
	ReplyToMessageID    *string             `json:"reply_to_message_id,omitempty"`
	RequestedByID       string              `json:"requested_by_id"`
	RequestedByTag      string              `json:"requested_by_tag"`
	Source              string              `json:"source"`
	Content             string              `json:"content"`
	NoMentionsOnApprove bool                `json:"no_mentions_on_approve"`
	Danger              MentionDangerReport `json:"danger"`
}

// PendingReview is a send awaiting human approval. Owned exclusively by the
// review workflow's registry from creation until its single terminal
// transition (approved, rejected or expired).
type PendingReview struct {
	ID                  string           `json:"id"`
	GuildID             string           `json:"guild_id"`
	Artifacts           []ReviewArtifact `json:"artifacts"`
	TargetChannelID     string           `json:"target_channel_id"`
	ReplyToMessageID    *string          `json:"reply_to_message_id,omitempty"`
	RequestedByID       string           `json:"requested_by_id"`
	RequestedByTag      string           `json:"requested_by_tag"`
	Source              string           `json:"source"`
	Content             string           `json:"content"`
	ArtifactBody        string           `json:"-"`
	NoMentionsOnApprove bool             `json:"no_mentions_on_approve"`
	AllowedOnApprove    MentionPolicy    `json:"allowed_on_approve"`
	ExpiresAt           time.Time        `json:"expires_at"`
}

// ReviewRequestOutcome reports whether a review could be opened at all.
type ReviewRequestOutcome struct {
	OK     bool   `json:"ok"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type ReviewResolutionStatus string

const (
	ReviewResolutionApproved        ReviewResolutionStatus = "approved"
	ReviewResolutionRejected        ReviewResolutionStatus = "rejected"
	ReviewResolutionExpired         ReviewResolutionStatus = "expired"
	ReviewResolutionNoLongerPending ReviewResolutionStatus = "no_longer_pending"
	ReviewResolutionInvalidAction   ReviewResolutionStatus = "invalid_action"
)

// ReviewResolution is the outcome of resolving a pending review.
type ReviewResolution struct {
	Status        ReviewResolutionStatus `json:"status"`
	Sent          bool                   `json:"sent"`
	SentMessageID string                 `json:"sent_message_id,omitempty"`
	SendError     string                 `json:"send_error,omitempty"`
}

const reviewButtonNamespace = "review"

// ReviewButtonID builds the component custom id for a review artifact button.
// Format: review:<action>:<pending id>
func ReviewButtonID(action ReviewAction, id string) string {
	return reviewButtonNamespace + ":" + string(action) + ":" + id
}

// ParseReviewButtonID extracts the pending id and action from a component
// custom id. Returns ok=false for custom ids that are not review buttons.
func ParseReviewButtonID(customID string) (id string, action ReviewAction, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != reviewButtonNamespace {
		return "", "", false
	}
	action = ReviewAction(parts[1])
	if action != ReviewActionApprove && action != ReviewActionReject {
		return "", "", false
	}
	return parts[2], action, true
}
