// Package handler 提供 HTTP 请求处理器
// 本文件处理在线状态
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Olamide1/loopline/internal/dto/request"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// PresenceHandler 在线状态请求处理器
type PresenceHandler struct {
	svc   PresenceService
	users UserLookup
}

func NewPresenceHandler(svc PresenceService, users UserLookup) *PresenceHandler {
	return &PresenceHandler{svc: svc, users: users}
}

// SetStatus 手动设置状态
// POST /api/v1/presence/status
func (h *PresenceHandler) SetStatus(c *gin.Context) {
	var req request.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	var workspace any
	if req.Workspace != "" {
		workspace = req.Workspace
	}
	status, err := h.svc.SetStatus(c.Request.Context(), uid, req.Status, workspace)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"userId": uid, "status": status})
}

// OnlineUsers 工作区在线用户
// GET /api/v1/presence/online?workspace=xxx
func (h *PresenceHandler) OnlineUsers(c *gin.Context) {
	workspace := c.Query("workspace")
	if workspace == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	HandleSuccess(c, h.svc.OnlineUsers(workspace))
}

// UserStatus 用户持久化的状态与最后在线时间
// GET /api/v1/presence/user/:id
func (h *PresenceHandler) UserStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	user, err := h.users.FindByUuid(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, user)
}
