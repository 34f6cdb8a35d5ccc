package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"replygate/clients"
	"replygate/models"
)

// DiscordChatClient implements the clients.ChatClient interface on top of a
// shared discordgo session.
type DiscordChatClient struct {
	session *discordgo.Session
}

// NewDiscordChatClient creates a chat client over an already-configured
// Discord session. The session is shared with the gateway event handler.
func NewDiscordChatClient(session *discordgo.Session) clients.ChatClient {
	return &DiscordChatClient{session: session}
}

// GetBotUser returns the bot's own identity, preferring the session state
// populated at gateway READY over an API round trip.
func (c *DiscordChatClient) GetBotUser() (*clients.BotUser, error) {
	if c.session.State != nil && c.session.State.User != nil {
		return &clients.BotUser{
			ID:       c.session.State.User.ID,
			Username: c.session.State.User.Username,
		}, nil
	}

	user, err := c.session.User("@me")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return &clients.BotUser{ID: user.ID, Username: user.Username}, nil
}

// SendMessage posts a message with an always-explicit mention policy. The
// allowed-mentions payload is sent on every call so that Discord never falls
// back to its permissive default.
func (c *DiscordChatClient) SendMessage(
	ctx context.Context,
	channelID, content string,
	opts clients.SendMessageOptions,
) (*clients.SentMessage, error) {
	send := &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: allowedMentionsFor(opts.Mentions),
	}

	if opts.ReplyToMessageID != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: opts.ReplyToMessageID,
			ChannelID: channelID,
		}
	}

	if opts.ApproveButtonID != "" && opts.RejectButtonID != "" {
		send.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Approve",
						Style:    discordgo.SuccessButton,
						CustomID: opts.ApproveButtonID,
					},
					discordgo.Button{
						Label:    "Reject",
						Style:    discordgo.DangerButton,
						CustomID: opts.RejectButtonID,
					},
				},
			},
		}
	}

	message, err := c.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send Discord message: %w", err)
	}

	return &clients.SentMessage{MessageID: message.ID, ChannelID: message.ChannelID}, nil
}

// FetchMessage fetches a single message by id. A deleted or inaccessible
// message yields None rather than an error - the caller treats lookups as
// best-effort.
func (c *DiscordChatClient) FetchMessage(
	ctx context.Context,
	channelID, messageID string,
) (mo.Option[*clients.FetchedMessage], error) {
	message, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Message != nil &&
			(restErr.Message.Code == discordgo.ErrCodeUnknownMessage ||
				restErr.Message.Code == discordgo.ErrCodeMissingAccess) {
			return mo.None[*clients.FetchedMessage](), nil
		}
		return mo.None[*clients.FetchedMessage](), fmt.Errorf("failed to fetch Discord message: %w", err)
	}
	if message == nil || message.Author == nil {
		return mo.None[*clients.FetchedMessage](), nil
	}

	return mo.Some(&clients.FetchedMessage{
		MessageID:   message.ID,
		ChannelID:   message.ChannelID,
		AuthorID:    message.Author.ID,
		AuthorIsBot: message.Author.Bot,
		Content:     message.Content,
	}), nil
}

// EditMessage rewrites a message's content, optionally removing its button
// components - used to transition review artifacts to a terminal state.
func (c *DiscordChatClient) EditMessage(
	ctx context.Context,
	channelID, messageID, newContent string,
	clearComponents bool,
) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.SetContent(newContent)
	if clearComponents {
		emptyComponents := []discordgo.MessageComponent{}
		edit.Components = &emptyComponents
	}

	if _, err := c.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit Discord message: %w", err)
	}
	return nil
}

// allowedMentionsFor converts the core mention policy into the Discord
// allowed-mentions payload. The empty policy suppresses every mention class.
func allowedMentionsFor(policy models.MentionPolicy) *discordgo.MessageAllowedMentions {
	allowed := &discordgo.MessageAllowedMentions{}
	if policy.AllowBroadcast {
		allowed.Parse = append(allowed.Parse, discordgo.AllowedMentionTypeEveryone)
	}
	if len(policy.RoleIDs) > 0 {
		allowed.Roles = policy.RoleIDs
	}
	return allowed
}
