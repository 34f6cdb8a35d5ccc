package models

// MessageEvent is the inbound chat message descriptor the decision core
// operates on, mapped from the gateway SDK event by the handlers layer.
type MessageEvent struct {
	GuildID             string  `json:"guild_id"`
	ChannelID           string  `json:"channel_id"`
	MessageID           string  `json:"message_id"`
	UserID              string  `json:"user_id"`
	UserTag             string  `json:"user_tag"`
	Content             string  `json:"content"`
	BotMentioned        bool    `json:"bot_mentioned"`
	ReferencedMessageID *string `json:"referenced_message_id,omitempty"`
	HasAttachment       bool    `json:"has_attachment"`
	AuthorIsBot         bool    `json:"author_is_bot"`
}

// ReviewInteractionEvent is a button press on a review artifact,
// mapped from the gateway component-interaction event.
type ReviewInteractionEvent struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	CustomID  string `json:"custom_id"`
	UserID    string `json:"user_id"`
	UserTag   string `json:"user_tag"`
}
