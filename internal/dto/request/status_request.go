package request

// SetStatusRequest 手动设置在线状态
// 使用位置:
//   - internal/handler/presence_handler.go: SetStatus
type SetStatusRequest struct {
	Status    string `json:"status" binding:"required,user_status"`
	Workspace string `json:"workspace"`
}
