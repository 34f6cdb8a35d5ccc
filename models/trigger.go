package models

import "time"

type TriggerReason string

const (
	TriggerReasonMention TriggerReason = "mention"
	TriggerReasonReply   TriggerReason = "reply"
	TriggerReasonRandom  TriggerReason = "random"
	TriggerReasonNone    TriggerReason = "none"
	TriggerReasonInvalid TriggerReason = "invalid"
)

type ReplySource string

const (
	ReplySourceTracker ReplySource = "tracker"
	ReplySourceFetch   ReplySource = "fetch"
	ReplySourceNone    ReplySource = ""
)

// TriggerDecision is the ephemeral result of evaluating one inbound message.
// It is recomputed per event and never persisted.
type TriggerDecision struct {
	ShouldTrigger   bool          `json:"should_trigger"`
	Reason          TriggerReason `json:"reason"`
	IsMention       bool          `json:"is_mention"`
	IsReplyToBot    bool          `json:"is_reply_to_bot"`
	IsRandomTrigger bool          `json:"is_random_trigger"`
	ReplySource     ReplySource   `json:"reply_source"`
}

// TrackedReplyEntry records a message the bot itself sent, so later replies
// to it can be recognized without a network round trip.
type TrackedReplyEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
}

// ReplyTrackerStats is a point-in-time snapshot of the tracker's registry.
type ReplyTrackerStats struct {
	Size    int   `json:"size"`
	Expired int64 `json:"expired"`
	Evicted int64 `json:"evicted"`
}
