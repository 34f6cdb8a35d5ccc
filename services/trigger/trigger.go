package trigger

import (
	"context"
	"log"
	"math/rand"

	"replygate/clients"
	"replygate/models"
	"replygate/services"
)

// TriggerDetector decides whether an inbound message should produce a reply.
// Reply-to-bot detection prefers the in-memory tracker and falls back to a
// best-effort message fetch on a miss.
type TriggerDetector struct {
	tracker      services.ReplyTrackerService
	chatClient   clients.ChatClient
	mentionGuard services.MentionGuardService
	randFloat    func() float64
}

func NewTriggerDetector(
	tracker services.ReplyTrackerService,
	chatClient clients.ChatClient,
	mentionGuard services.MentionGuardService,
) *TriggerDetector {
	return &TriggerDetector{
		tracker:      tracker,
		chatClient:   chatClient,
		mentionGuard: mentionGuard,
		randFloat:    rand.Float64,
	}
}

// Evaluate produces a TriggerDecision for one inbound event. Precedence is
// mention > reply > random > none, and the detector fails closed when the
// event or bot identity is incomplete.
func (d *TriggerDetector) Evaluate(ctx context.Context, event models.MessageEvent, botUserID string, randomProbability float64) models.TriggerDecision {
	if botUserID == "" || event.MessageID == "" || event.ChannelID == "" {
		log.Printf("⚠️ Trigger evaluation missing required inputs, failing closed")
		return models.TriggerDecision{Reason: models.TriggerReasonInvalid}
	}

	if event.AuthorIsBot {
		return models.TriggerDecision{Reason: models.TriggerReasonNone}
	}

	decision := models.TriggerDecision{
		IsMention:   event.BotMentioned,
		ReplySource: models.ReplySourceNone,
	}

	decision.IsReplyToBot, decision.ReplySource = d.resolveReplyToBot(ctx, event, botUserID, decision.IsMention)

	switch {
	case decision.IsMention:
		decision.ShouldTrigger = true
		decision.Reason = models.TriggerReasonMention
	case decision.IsReplyToBot:
		decision.ShouldTrigger = true
		decision.Reason = models.TriggerReasonReply
	case d.shouldRandomTrigger(event, randomProbability):
		decision.ShouldTrigger = true
		decision.IsRandomTrigger = true
		decision.Reason = models.TriggerReasonRandom
	default:
		decision.Reason = models.TriggerReasonNone
	}

	return decision
}

// resolveReplyToBot checks the tracker first because it is free. The fetch
// fallback covers tracker misses from eviction or a restart, but is skipped
// when a mention already decides the outcome.
func (d *TriggerDetector) resolveReplyToBot(ctx context.Context, event models.MessageEvent, botUserID string, alreadyMentioned bool) (bool, models.ReplySource) {
	if event.ReferencedMessageID == nil || *event.ReferencedMessageID == "" {
		return false, models.ReplySourceNone
	}

	referencedID := *event.ReferencedMessageID
	if d.tracker.Has(referencedID) {
		return true, models.ReplySourceTracker
	}

	if alreadyMentioned || d.chatClient == nil {
		return false, models.ReplySourceNone
	}

	maybeMsg, err := d.chatClient.FetchMessage(ctx, event.ChannelID, referencedID)
	if err != nil {
		log.Printf("⚠️ Failed to fetch referenced message %s: %v", referencedID, err)
		return false, models.ReplySourceNone
	}

	fetched, ok := maybeMsg.Get()
	if !ok || fetched.AuthorID != botUserID {
		return false, models.ReplySourceNone
	}

	// Warm the tracker so the next reply in this thread skips the fetch.
	d.tracker.MarkSent(referencedID, "refetched")
	return true, models.ReplySourceFetch
}

// shouldRandomTrigger draws a random sample only for content that is safe to
// reply to unsolicited: no mass-mention risk and no media attachment.
func (d *TriggerDetector) shouldRandomTrigger(event models.MessageEvent, probability float64) bool {
	if probability <= 0 {
		return false
	}
	if event.HasAttachment {
		return false
	}
	if d.mentionGuard.Detect(event.Content).Dangerous {
		return false
	}
	return d.randFloat() < probability
}
