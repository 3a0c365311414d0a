package request

// WorkspaceRef 已解析的工作区，可省略（频道带 workspace 时以频道为准）
// 使用位置:
//   - internal/handler/event_handler.go
//   - internal/service/realtime/events.go
type WorkspaceRef struct {
	ID      string `json:"_id"`
	Admin   any    `json:"admin"`
	Members []any  `json:"members"`
}

// ChannelRef 已解析的频道，privacy 为 "private" 时只通知频道成员
type ChannelRef struct {
	ID        string `json:"_id" binding:"required"`
	Workspace string `json:"workspace"`
	Privacy   string `json:"privacy"`
	Members   []any  `json:"members"`
}

// IsPrivate 是否私有频道
func (c ChannelRef) IsPrivate() bool {
	return c.Privacy == "private"
}

// MessagePostedRequest 新消息（含线程回复、机器人消息）
// message 需带 _id、user、mentions，线程回复带 threadParent
// threadRoot 为线程根消息，线程回复时用于找到根作者
type MessagePostedRequest struct {
	Message    map[string]any `json:"message" binding:"required"`
	Channel    ChannelRef     `json:"channel" binding:"required"`
	Workspace  WorkspaceRef   `json:"workspace"`
	ThreadRoot map[string]any `json:"threadRoot"`
}

// ReactionToggledRequest 表情回应增减
// message 需带 _id、user、reactions，可带 threadParent
type ReactionToggledRequest struct {
	Message   map[string]any `json:"message" binding:"required"`
	Channel   string         `json:"channel" binding:"required"`
	Workspace WorkspaceRef   `json:"workspace"`
	Actor     any            `json:"actor" binding:"omitempty,ref"`
	Emoji     string         `json:"emoji"`
	Added     bool           `json:"added"`
}

// MessageReadRequest 已读回执
type MessageReadRequest struct {
	MessageID    string `json:"messageId" binding:"required"`
	Channel      string `json:"channel" binding:"required"`
	ThreadParent string `json:"threadParent"`
	Reader       any    `json:"reader" binding:"omitempty,ref"`
	ReadBy       []any  `json:"readBy"`
}

// DirectMessageRequest 私信
// conversation 需带 _id、participants，可带 workspace；message 需带 _id、user
type DirectMessageRequest struct {
	Conversation map[string]any `json:"conversation" binding:"required"`
	Message      map[string]any `json:"message" binding:"required"`
}

// MessageUpdatedRequest 消息编辑，message 需带 _id、channel、user
type MessageUpdatedRequest struct {
	Message map[string]any `json:"message" binding:"required"`
}

// ChannelChangedRequest 频道创建或更新
// channel 需带 _id，workspace 省略时取 channel.workspace
type ChannelChangedRequest struct {
	Channel   map[string]any `json:"channel" binding:"required"`
	Workspace string         `json:"workspace"`
}

// ChannelReadRequest 频道标记已读
type ChannelReadRequest struct {
	Channel   string `json:"channel" binding:"required"`
	Workspace string `json:"workspace" binding:"required"`
	Reader    any    `json:"reader" binding:"omitempty,ref"`
}
