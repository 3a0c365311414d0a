// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接升级
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler WebSocket 连接处理器
type WsHandler struct {
	sessions SessionServer
}

func NewWsHandler(sessions SessionServer) *WsHandler {
	return &WsHandler{sessions: sessions}
}

// Connect 升级为 WebSocket 会话
// GET /wss?token=xxx
// 用户身份只取自令牌，不接受客户端自报的 ID
func (h *WsHandler) Connect(c *gin.Context) {
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	// 升级失败时 upgrader 已写回 HTTP 错误
	if err := h.sessions.Serve(c.Writer, c.Request, uid); err != nil {
		zap.L().Warn("websocket upgrade failed", zap.String("user", uid), zap.Error(err))
	}
}
