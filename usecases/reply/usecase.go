package reply

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"replygate/clients"
	"replygate/models"
	"replygate/services"
)

var listLinePattern = regexp.MustCompile(`^\s*(?:[-*•+‣]|\d{1,3}[.)])\s+`)

// ReplyUseCase runs the full decision-and-delivery pipeline for one inbound
// message: trigger evaluation, completion, sanitization, mention-danger
// gating with human review, and guaranteed delivery. It also resolves review
// button interactions.
type ReplyUseCase struct {
	chatClient           clients.ChatClient
	completionClient     clients.CompletionClient
	guildSettingsService services.GuildSettingsService
	triggerService       services.TriggerService
	sanitizerService     services.SanitizerService
	mentionGuardService  services.MentionGuardService
	replyTrackerService  services.ReplyTrackerService
	reviewsService       services.ReviewsService
	deliveryService      services.DeliveryService
	usageCostService     services.UsageCostService

	systemPrompt        string
	fallbackText        string
	maxCompletionTokens int
}

// NewReplyUseCase creates a new instance of ReplyUseCase
func NewReplyUseCase(
	chatClient clients.ChatClient,
	completionClient clients.CompletionClient,
	guildSettingsService services.GuildSettingsService,
	triggerService services.TriggerService,
	sanitizerService services.SanitizerService,
	mentionGuardService services.MentionGuardService,
	replyTrackerService services.ReplyTrackerService,
	reviewsService services.ReviewsService,
	deliveryService services.DeliveryService,
	usageCostService services.UsageCostService,
	systemPrompt string,
	fallbackText string,
	maxCompletionTokens int,
) *ReplyUseCase {
	return &ReplyUseCase{
		chatClient:           chatClient,
		completionClient:     completionClient,
		guildSettingsService: guildSettingsService,
		triggerService:       triggerService,
		sanitizerService:     sanitizerService,
		mentionGuardService:  mentionGuardService,
		replyTrackerService:  replyTrackerService,
		reviewsService:       reviewsService,
		deliveryService:      deliveryService,
		usageCostService:     usageCostService,
		systemPrompt:         systemPrompt,
		fallbackText:         fallbackText,
		maxCompletionTokens:  maxCompletionTokens,
	}
}

// ProcessMessageEvent handles one inbound chat message end to end.
func (u *ReplyUseCase) ProcessMessageEvent(ctx context.Context, event models.MessageEvent) error {
	log.Printf("📋 Starting to process message event from user %s in guild %s, channel %s",
		event.UserID, event.GuildID, event.ChannelID)

	botUser, err := u.chatClient.GetBotUser()
	if err != nil {
		log.Printf("❌ Failed to get bot user: %v", err)
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	if event.UserID == botUser.ID {
		return nil
	}

	settings, err := u.guildSettingsService.GetEffectiveSettings(ctx, event.GuildID)
	if err != nil {
		log.Printf("❌ Failed to get guild settings for %s: %v", event.GuildID, err)
		return fmt.Errorf("failed to get guild settings: %w", err)
	}
	if !settings.RepliesEnabled {
		log.Printf("🔍 Replies disabled for guild %s - ignoring message", event.GuildID)
		return nil
	}

	decision := u.triggerService.Evaluate(ctx, event, botUser.ID, settings.RandomReplyProbability)
	if !decision.ShouldTrigger {
		log.Printf("🔍 No trigger for message %s (reason: %s) - ignoring", event.MessageID, decision.Reason)
		return nil
	}
	log.Printf("🤖 Triggered on message %s, reason: %s", event.MessageID, decision.Reason)

	content := u.generateReplyContent(ctx, event, settings)

	outcome := u.deliverReply(ctx, event, settings, decision, content)
	log.Printf("📋 Completed successfully - delivery for message %s finished with mode %s", event.MessageID, outcome.Mode)
	return nil
}

// generateReplyContent calls the completion provider and sanitizes the
// output. Any failure or sanitizer rejection yields empty content; the
// delivery layer turns that into the generic fallback notice.
func (u *ReplyUseCase) generateReplyContent(ctx context.Context, event models.MessageEvent, settings *models.GuildSettings) string {
	userText := fmt.Sprintf("%s: %s", event.UserTag, event.Content)

	completion, err := u.completionClient.GenerateCompletion(ctx, u.systemPrompt, userText, clients.CompletionOptions{
		MaxTokens: u.maxCompletionTokens,
	})
	if err != nil {
		log.Printf("❌ Completion call failed for message %s: %v", event.MessageID, err)
		return ""
	}

	if _, err := u.usageCostService.RecordCompletionUsage(ctx, event.GuildID, completion.Usage); err != nil {
		// Accounting must never block the reply path.
		log.Printf("⚠️ Failed to record completion usage for guild %s: %v", event.GuildID, err)
	}

	result := u.sanitizerService.Sanitize(completion.Text)
	if result.Text == "" {
		log.Printf("⚠️ Sanitizer rejected completion for message %s: %v", event.MessageID, result.Reasons)
		return ""
	}

	content := result.Text
	if looksLikeList(content) {
		content = strings.Join(u.sanitizerService.CollapseRepetitiveLines(strings.Split(content, "\n")), "\n")
	}
	return capLength(content, settings.MaxReplyLength)
}

// deliverReply wires the event into the guaranteed-delivery sender. The
// primary closure is review-aware: mention-dangerous content is parked for
// moderator approval instead of being sent.
func (u *ReplyUseCase) deliverReply(
	ctx context.Context,
	event models.MessageEvent,
	settings *models.GuildSettings,
	decision models.TriggerDecision,
	content string,
) models.DeliveryOutcome {
	sendPrimary := func(ctx context.Context) (models.PrimarySendResult, error) {
		if content == "" {
			return models.PrimarySendResult{}, nil
		}

		danger := u.mentionGuardService.Detect(content)
		if danger.Dangerous {
			log.Printf("⚠️ Reply for message %s carries mention risk (%+v), deferring to review", event.MessageID, danger)
			outcome := u.reviewsService.RequestReview(ctx, models.ReviewRequest{
				GuildID:             event.GuildID,
				Destinations:        settings.ReviewDestinations(),
				TargetChannelID:     event.ChannelID,
				ReplyToMessageID:    &event.MessageID,
				RequestedByID:       event.UserID,
				RequestedByTag:      event.UserTag,
				Source:              string(decision.Reason),
				Content:             content,
				NoMentionsOnApprove: decision.IsRandomTrigger,
				Danger:              danger,
			})
			if !outcome.OK {
				return models.PrimarySendResult{FailureReason: outcome.Reason}, nil
			}
			return models.PrimarySendResult{DeferredToReview: true, ReviewID: outcome.ID}, nil
		}

		sent, err := u.chatClient.SendMessage(ctx, event.ChannelID, content, clients.SendMessageOptions{
			ReplyToMessageID: event.MessageID,
		})
		if err != nil {
			return models.PrimarySendResult{}, err
		}
		u.replyTrackerService.MarkSent(sent.MessageID, string(decision.Reason))
		return models.PrimarySendResult{Sent: true, MessageID: sent.MessageID}, nil
	}

	sendFallback := func(ctx context.Context, text string) (string, error) {
		sent, err := u.chatClient.SendMessage(ctx, event.ChannelID, text, clients.SendMessageOptions{
			ReplyToMessageID: event.MessageID,
		})
		if err != nil {
			return "", err
		}
		u.replyTrackerService.MarkSent(sent.MessageID, "fallback")
		return sent.MessageID, nil
	}

	return u.deliveryService.Deliver(ctx, models.DeliveryRequest{
		Content:      content,
		SendPrimary:  sendPrimary,
		SendFallback: sendFallback,
		FallbackText: u.fallbackText,
	})
}

// ProcessReviewInteraction resolves a button press on a review artifact and
// returns the ephemeral acknowledgement to show the acting moderator. An
// empty ack means the interaction was not a review button.
func (u *ReplyUseCase) ProcessReviewInteraction(ctx context.Context, event models.ReviewInteractionEvent) (string, error) {
	id, action, ok := models.ParseReviewButtonID(event.CustomID)
	if !ok {
		return "", nil
	}

	log.Printf("📋 Starting to process review interaction %s on %s by %s", event.CustomID, id, event.UserTag)
	resolution := u.reviewsService.Resolve(ctx, id, action, event.UserTag)

	if resolution.Status == models.ReviewResolutionApproved && resolution.Sent {
		u.replyTrackerService.MarkSent(resolution.SentMessageID, "approved-reply")
	}

	switch resolution.Status {
	case models.ReviewResolutionApproved:
		if resolution.Sent {
			return "✅ Approved, the reply was sent", nil
		}
		return fmt.Sprintf("⚠️ Approved, but the send failed: %s", resolution.SendError), nil
	case models.ReviewResolutionRejected:
		return "❌ Rejected, nothing was sent", nil
	case models.ReviewResolutionNoLongerPending:
		return "This review was already resolved or timed out", nil
	default:
		return "Unrecognized review action", nil
	}
}

// looksLikeList reports whether most non-empty lines carry a bullet or
// numbering prefix. Only such replies go through line collapsing, so normal
// prose keeps its formatting.
func looksLikeList(content string) bool {
	lines := strings.Split(content, "\n")
	nonEmpty, bulleted := 0, 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonEmpty++
		if listLinePattern.MatchString(line) {
			bulleted++
		}
	}
	return nonEmpty >= 3 && bulleted*2 > nonEmpty
}

// capLength enforces the guild's reply length limit on a rune boundary.
// Limits too small to hold the "..." suffix get a plain cut.
func capLength(content string, maxLength int) string {
	if maxLength <= 0 || len(content) <= maxLength {
		return content
	}

	suffix := "..."
	cut := maxLength - len(suffix)
	if cut < 1 {
		suffix = ""
		cut = maxLength
	}
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + suffix
}
