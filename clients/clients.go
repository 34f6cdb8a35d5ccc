package clients

import (
	"context"

	"github.com/samber/mo"

	"replygate/models"
)

// BotUser identifies the bot's own account on the chat platform.
type BotUser struct {
	ID       string
	Username string
}

// SentMessage is the reference to a message a send operation produced.
type SentMessage struct {
	MessageID string
	ChannelID string
}

// FetchedMessage is the subset of a fetched message the core needs.
type FetchedMessage struct {
	MessageID   string
	ChannelID   string
	AuthorID    string
	AuthorIsBot bool
	Content     string
}

// SendMessageOptions controls a single send: optional reply-to reference,
// the mention classes rendered live, and optional review buttons.
type SendMessageOptions struct {
	ReplyToMessageID string
	Mentions         models.MentionPolicy
	ApproveButtonID  string
	RejectButtonID   string
}

// ChatClient is the chat-platform capability surface the core consumes.
type ChatClient interface {
	GetBotUser() (*BotUser, error)
	SendMessage(ctx context.Context, channelID, content string, opts SendMessageOptions) (*SentMessage, error)
	FetchMessage(ctx context.Context, channelID, messageID string) (mo.Option[*FetchedMessage], error)
	EditMessage(ctx context.Context, channelID, messageID, newContent string, clearComponents bool) error
}

// CompletionOptions tunes a single completion call.
type CompletionOptions struct {
	MaxTokens int
}

// CompletionResult is the generated text plus its token accounting.
type CompletionResult struct {
	Text  string
	Usage models.CompletionUsage
}

// CompletionClient is the opaque text-generation capability. Calls may fail
// or time out; the core only reacts to the error.
type CompletionClient interface {
	GenerateCompletion(ctx context.Context, systemText, userText string, opts CompletionOptions) (*CompletionResult, error)
}
