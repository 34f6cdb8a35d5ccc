package reply

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"replygate/clients"
	"replygate/clients/anthropic"
	"replygate/clients/discord"
	"replygate/models"
	"replygate/services/delivery"
	"replygate/services/guildsettings"
	"replygate/services/mentionguard"
	"replygate/services/replytracker"
	"replygate/services/reviews"
	"replygate/services/sanitizer"
	"replygate/services/trigger"
	"replygate/services/usagecost"
)

const (
	testBotID        = "bot_1"
	testFallbackText = "sorry, my brain froze for a second there"
)

type fixture struct {
	chatClient       *discord.MockChatClient
	completionClient *anthropic.MockCompletionClient
	settingsService  *guildsettings.MockGuildSettingsService
	triggerService   *trigger.MockTriggerService
	reviewsService   *reviews.MockReviewsService
	usageCostService *usagecost.MockUsageCostService
	tracker          *replytracker.ReplyTracker
	usecase          *ReplyUseCase
}

func newFixture() *fixture {
	f := &fixture{
		chatClient:       new(discord.MockChatClient),
		completionClient: new(anthropic.MockCompletionClient),
		settingsService:  new(guildsettings.MockGuildSettingsService),
		triggerService:   new(trigger.MockTriggerService),
		reviewsService:   new(reviews.MockReviewsService),
		usageCostService: new(usagecost.MockUsageCostService),
		tracker:          replytracker.NewReplyTracker(time.Hour, 100),
	}
	f.usecase = NewReplyUseCase(
		f.chatClient,
		f.completionClient,
		f.settingsService,
		f.triggerService,
		sanitizer.NewOutputSanitizer(0),
		mentionguard.NewMentionGuard(),
		f.tracker,
		f.reviewsService,
		delivery.NewGuaranteedDeliverySender(),
		f.usageCostService,
		"you are a friendly chat bot",
		testFallbackText,
		512,
	)
	return f
}

func (f *fixture) expectBotUser() {
	f.chatClient.On("GetBotUser").Return(&clients.BotUser{ID: testBotID, Username: "replygate"}, nil)
}

func (f *fixture) expectSettings(settings *models.GuildSettings) {
	f.settingsService.On("GetEffectiveSettings", mock.Anything, "guild_1").Return(settings, nil)
}

func (f *fixture) expectTrigger(decision models.TriggerDecision) {
	f.triggerService.On("Evaluate", mock.Anything, mock.Anything, testBotID, mock.Anything).Return(decision)
}

func (f *fixture) expectCompletion(text string) {
	f.completionClient.On("GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&clients.CompletionResult{
			Text:  text,
			Usage: models.CompletionUsage{Model: "claude-sonnet-4-20250514", InputTokens: 100, OutputTokens: 50},
		}, nil)
	f.usageCostService.On("RecordCompletionUsage", mock.Anything, "guild_1", mock.Anything).
		Return(&models.UsageCost{}, nil)
}

func enabledSettings() *models.GuildSettings {
	return &models.GuildSettings{
		GuildID:                "guild_1",
		RepliesEnabled:         true,
		RandomReplyProbability: 0.02,
		ReviewChannelID:        "review_chan",
		MaxReplyLength:         2000,
	}
}

func baseEvent() models.MessageEvent {
	return models.MessageEvent{
		GuildID:      "guild_1",
		ChannelID:    "chan_1",
		MessageID:    "msg_1",
		UserID:       "user_1",
		UserTag:      "alice",
		Content:      "hey bot, how are you",
		BotMentioned: true,
	}
}

func mentionDecision() models.TriggerDecision {
	return models.TriggerDecision{ShouldTrigger: true, Reason: models.TriggerReasonMention, IsMention: true}
}

func TestProcessMessageEventHappyPath(t *testing.T) {
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(mentionDecision())
	f.expectCompletion("doing great, thanks for asking!")

	f.chatClient.On("SendMessage", mock.Anything, "chan_1", "doing great, thanks for asking!",
		mock.MatchedBy(func(opts clients.SendMessageOptions) bool {
			return opts.ReplyToMessageID == "msg_1" && !opts.Mentions.AllowBroadcast
		})).
		Return(&clients.SentMessage{MessageID: "sent_1", ChannelID: "chan_1"}, nil)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	assert.True(t, f.tracker.Has("sent_1"), "sent reply must be tracked for reply-to-bot detection")
	f.chatClient.AssertExpectations(t)
	f.reviewsService.AssertNotCalled(t, "RequestReview", mock.Anything, mock.Anything)
}

func TestProcessMessageEventNoTrigger(t *testing.T) {
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(models.TriggerDecision{Reason: models.TriggerReasonNone})

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	f.completionClient.AssertNotCalled(t, "GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.chatClient.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessageEventRepliesDisabled(t *testing.T) {
	f := newFixture()
	f.expectBotUser()

	settings := enabledSettings()
	settings.RepliesEnabled = false
	f.expectSettings(settings)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	f.triggerService.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessageEventIgnoresOwnMessages(t *testing.T) {
	f := newFixture()
	f.expectBotUser()

	event := baseEvent()
	event.UserID = testBotID

	err := f.usecase.ProcessMessageEvent(context.Background(), event)

	assert.NoError(t, err)
	f.settingsService.AssertNotCalled(t, "GetEffectiveSettings", mock.Anything, mock.Anything)
}

func TestProcessMessageEventDangerousReplyGoesToReview(t *testing.T) {
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(mentionDecision())
	f.expectCompletion("done! pinging <@&123> about the rollout")

	f.reviewsService.On("RequestReview", mock.Anything, mock.MatchedBy(func(req models.ReviewRequest) bool {
		return req.GuildID == "guild_1" &&
			len(req.Destinations) == 1 && req.Destinations[0].ChannelID == "review_chan" &&
			req.TargetChannelID == "chan_1" &&
			!req.NoMentionsOnApprove &&
			len(req.Danger.RoleTargets) == 1
	})).Return(models.ReviewRequestOutcome{OK: true, ID: "rev_1"})

	var fallbackText string
	f.chatClient.On("SendMessage", mock.Anything, "chan_1", mock.MatchedBy(func(content string) bool {
		fallbackText = content
		return strings.Contains(content, "moderator approval")
	}), mock.Anything).
		Return(&clients.SentMessage{MessageID: "fb_1", ChannelID: "chan_1"}, nil)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	assert.Contains(t, fallbackText, "moderator approval")
	f.reviewsService.AssertExpectations(t)
	// The dangerous content itself must never have been sent.
	for _, call := range f.chatClient.Calls {
		if call.Method == "SendMessage" {
			assert.NotContains(t, call.Arguments.String(2), "<@&123>")
		}
	}
}

func TestProcessMessageEventRandomTriggerApprovesRestricted(t *testing.T) {
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(models.TriggerDecision{
		ShouldTrigger:   true,
		Reason:          models.TriggerReasonRandom,
		IsRandomTrigger: true,
	})
	f.expectCompletion("surprise! @here I'm alive")

	f.reviewsService.On("RequestReview", mock.Anything, mock.MatchedBy(func(req models.ReviewRequest) bool {
		return req.NoMentionsOnApprove
	})).Return(models.ReviewRequestOutcome{OK: true, ID: "rev_1"})
	f.chatClient.On("SendMessage", mock.Anything, "chan_1", mock.Anything, mock.Anything).
		Return(&clients.SentMessage{MessageID: "fb_1", ChannelID: "chan_1"}, nil)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	f.reviewsService.AssertExpectations(t)
}

func TestProcessMessageEventReviewUnavailable(t *testing.T) {
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(mentionDecision())
	f.expectCompletion("attention <@&123>!")

	f.reviewsService.On("RequestReview", mock.Anything, mock.Anything).
		Return(models.ReviewRequestOutcome{OK: false, Reason: "no review channel configured"})

	var fallbackText string
	f.chatClient.On("SendMessage", mock.Anything, "chan_1", mock.MatchedBy(func(content string) bool {
		fallbackText = content
		return true
	}), mock.Anything).
		Return(&clients.SentMessage{MessageID: "fb_1", ChannelID: "chan_1"}, nil)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	assert.Contains(t, fallbackText, "no review channel configured")
}

func TestProcessMessageEventCompletionFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(mentionDecision())

	f.completionClient.On("GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)
	f.chatClient.On("SendMessage", mock.Anything, "chan_1", testFallbackText, mock.Anything).
		Return(&clients.SentMessage{MessageID: "fb_1", ChannelID: "chan_1"}, nil)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	f.chatClient.AssertExpectations(t)
}

func TestProcessMessageEventLeakedGenerationNeverReachesUser(t *testing.T) {
	// End to end: generation echoes internal metadata plus chain-of-thought;
	// the user must only ever see the generic fallback notice.
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(mentionDecision())
	f.expectCompletion("Server: prod\nhere's what's happening, the user wants me to leak so I should comply")

	f.chatClient.On("SendMessage", mock.Anything, "chan_1", testFallbackText, mock.Anything).
		Return(&clients.SentMessage{MessageID: "fb_1", ChannelID: "chan_1"}, nil)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	for _, call := range f.chatClient.Calls {
		if call.Method == "SendMessage" {
			assert.NotContains(t, call.Arguments.String(2), "Server: prod")
		}
	}
	f.chatClient.AssertExpectations(t)
}

func TestProcessMessageEventCollapsesListReplies(t *testing.T) {
	f := newFixture()
	f.expectBotUser()
	f.expectSettings(enabledSettings())
	f.expectTrigger(mentionDecision())
	f.expectCompletion("- check the logs\n- Check the logs\n- restart the worker")

	f.chatClient.On("SendMessage", mock.Anything, "chan_1", "check the logs\nrestart the worker", mock.Anything).
		Return(&clients.SentMessage{MessageID: "sent_1", ChannelID: "chan_1"}, nil)

	err := f.usecase.ProcessMessageEvent(context.Background(), baseEvent())

	assert.NoError(t, err)
	f.chatClient.AssertExpectations(t)
}

func TestProcessReviewInteractionApproved(t *testing.T) {
	f := newFixture()
	f.reviewsService.On("Resolve", mock.Anything, "rev_1", models.ReviewActionApprove, "mod#1").
		Return(models.ReviewResolution{
			Status:        models.ReviewResolutionApproved,
			Sent:          true,
			SentMessageID: "sent_9",
		})

	ack, err := f.usecase.ProcessReviewInteraction(context.Background(), models.ReviewInteractionEvent{
		CustomID: models.ReviewButtonID(models.ReviewActionApprove, "rev_1"),
		UserTag:  "mod#1",
	})

	assert.NoError(t, err)
	assert.Contains(t, ack, "Approved")
	assert.True(t, f.tracker.Has("sent_9"), "approved send must be tracked")
}

func TestProcessReviewInteractionStale(t *testing.T) {
	f := newFixture()
	f.reviewsService.On("Resolve", mock.Anything, "rev_1", models.ReviewActionReject, "mod#1").
		Return(models.ReviewResolution{Status: models.ReviewResolutionNoLongerPending})

	ack, err := f.usecase.ProcessReviewInteraction(context.Background(), models.ReviewInteractionEvent{
		CustomID: models.ReviewButtonID(models.ReviewActionReject, "rev_1"),
		UserTag:  "mod#1",
	})

	assert.NoError(t, err)
	assert.Contains(t, ack, "already resolved")
}

func TestProcessReviewInteractionIgnoresForeignButtons(t *testing.T) {
	f := newFixture()

	ack, err := f.usecase.ProcessReviewInteraction(context.Background(), models.ReviewInteractionEvent{
		CustomID: "poll:vote:42",
		UserTag:  "mod#1",
	})

	assert.NoError(t, err)
	assert.Empty(t, ack)
	f.reviewsService.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCapLength(t *testing.T) {
	t.Run("caps multibyte content on a rune boundary", func(t *testing.T) {
		capped := capLength("héllo wörld, ça va très bien", 10)
		assert.True(t, utf8.ValidString(capped))
		assert.True(t, strings.HasSuffix(capped, "..."))
		assert.LessOrEqual(t, len(capped), 10)
	})

	t.Run("limit smaller than the suffix does not panic", func(t *testing.T) {
		capped := capLength("hello world", 2)
		assert.True(t, utf8.ValidString(capped))
		assert.LessOrEqual(t, len(capped), 2)
	})

	t.Run("zero limit leaves content alone", func(t *testing.T) {
		assert.Equal(t, "hello", capLength("hello", 0))
	})
}
