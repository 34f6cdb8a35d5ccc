package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"replygate/middleware"
	"replygate/models"
	"replygate/usecases/reply"
)

type DiscordEventsHandler struct {
	discordSDKClient *discordgo.Session
	replyUseCase     *reply.ReplyUseCase
	alertMiddleware  *middleware.ErrorAlertMiddleware
}

func NewDiscordEventsHandler(
	session *discordgo.Session,
	replyUseCase *reply.ReplyUseCase,
	alertMiddleware *middleware.ErrorAlertMiddleware,
) *DiscordEventsHandler {
	handler := &DiscordEventsHandler{
		discordSDKClient: session,
		replyUseCase:     replyUseCase,
		alertMiddleware:  alertMiddleware,
	}

	session.AddHandler(handler.handleMessageCreatedEvent)
	session.AddHandler(handler.handleInteractionCreatedEvent)

	// Message content is required to evaluate triggers and mention danger
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return handler
}

// StartBot opens the Discord connection and starts listening for events
func (h *DiscordEventsHandler) StartBot() error {
	if err := h.discordSDKClient.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	log.Printf("🤖 Discord bot is now running and listening for events")
	return nil
}

// StopBot gracefully closes the Discord connection
func (h *DiscordEventsHandler) StopBot() {
	h.discordSDKClient.Close()
}

// handleMessageCreatedEvent maps incoming Discord messages to the reply
// pipeline's event model
func (h *DiscordEventsHandler) handleMessageCreatedEvent(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	log.Printf("📨 Discord message received from %s in guild %s, channel %s",
		m.Author.Username, m.GuildID, m.ChannelID)

	event := mapToMessageEvent(s, m)

	h.alertMiddleware.WrapEventHandler("MessageCreate", func() error {
		if err := h.replyUseCase.ProcessMessageEvent(context.Background(), event); err != nil {
			log.Printf("❌ Failed to process Discord message event: %v", err)
			return err
		}
		return nil
	})()
}

// handleInteractionCreatedEvent routes review button presses to the workflow
// and acknowledges the acting moderator with an ephemeral message.
func (h *DiscordEventsHandler) handleInteractionCreatedEvent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	event := models.ReviewInteractionEvent{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CustomID:  i.MessageComponentData().CustomID,
	}
	if i.Message != nil {
		event.MessageID = i.Message.ID
	}
	if i.Member != nil && i.Member.User != nil {
		event.UserID = i.Member.User.ID
		event.UserTag = i.Member.User.Username
	} else if i.User != nil {
		event.UserID = i.User.ID
		event.UserTag = i.User.Username
	}

	h.alertMiddleware.WrapEventHandler("InteractionCreate", func() error {
		ack, err := h.replyUseCase.ProcessReviewInteraction(context.Background(), event)
		if err != nil {
			log.Printf("❌ Failed to process review interaction %s: %v", event.CustomID, err)
			return err
		}
		if ack == "" {
			return nil // not a review button
		}

		err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: ack,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			log.Printf("⚠️ Failed to acknowledge review interaction: %v", err)
		}
		return nil
	})()
}

func mapToMessageEvent(s *discordgo.Session, m *discordgo.MessageCreate) models.MessageEvent {
	event := models.MessageEvent{
		GuildID:       m.GuildID,
		ChannelID:     m.ChannelID,
		MessageID:     m.ID,
		UserID:        m.Author.ID,
		UserTag:       m.Author.Username,
		Content:       m.Content,
		HasAttachment: len(m.Attachments) > 0,
		AuthorIsBot:   m.Author.Bot,
	}

	if s.State.User != nil {
		for _, mentioned := range m.Mentions {
			if mentioned.ID == s.State.User.ID {
				event.BotMentioned = true
				break
			}
		}
	}

	if m.MessageReference != nil && m.MessageReference.MessageID != "" {
		refID := m.MessageReference.MessageID
		event.ReferencedMessageID = &refID
	}

	return event
}
