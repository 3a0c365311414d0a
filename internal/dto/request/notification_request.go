package request

// NotificationListRequest 通知列表查询参数
// 使用位置:
//   - internal/handler/notification_handler.go: List
type NotificationListRequest struct {
	Limit      int    `form:"limit" binding:"omitempty,min=1"`
	UnreadOnly bool   `form:"unreadOnly"`
	Type       string `form:"type" binding:"omitempty,notification_kind"`
}
