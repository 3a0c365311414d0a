package realtime

// JoinedChannelPayload joined_channel 回执
type JoinedChannelPayload struct {
	ChannelID string `json:"channelId"`
}

// TypingPayload user_typing / user_stopped_typing
type TypingPayload struct {
	UserID  string `json:"userId"`
	Channel string `json:"channel"`
}

// ActivityPayload workspace_activity
type ActivityPayload struct {
	Type    string         `json:"type"`
	Channel string         `json:"channel"`
	Message map[string]any `json:"message"`
}

// ReactionPayload reaction_updated 只带增量
type ReactionPayload struct {
	ID        string `json:"_id"`
	Reactions any    `json:"reactions"`
	Channel   string `json:"channel"`
}

// ReadPayload message_read 只带增量
type ReadPayload struct {
	MessageID string `json:"messageId"`
	ReadBy    []any  `json:"readBy"`
	Channel   string `json:"channel"`
}

// DirectMessagePayload dm_message
type DirectMessagePayload struct {
	Conversation map[string]any `json:"conversation"`
	Message      map[string]any `json:"message"`
}

// ChannelUpdatedPayload channel_updated 只带可变字段
type ChannelUpdatedPayload struct {
	ID          string `json:"_id"`
	Name        any    `json:"name"`
	Privacy     any    `json:"privacy"`
	Members     any    `json:"members"`
	Description any    `json:"description"`
}

// ChannelReadPayload channel_read
type ChannelReadPayload struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}
