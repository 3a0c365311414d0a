// Package handler 提供 HTTP 请求处理器
// 本文件处理通知列表、未读数与已读
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Olamide1/loopline/internal/dto/request"
	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// NotificationHandler 通知请求处理器
type NotificationHandler struct {
	svc NotificationService
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List 当前用户通知列表
// GET /api/v1/notification/list?limit=50&unreadOnly=true&type=mention
func (h *NotificationHandler) List(c *gin.Context) {
	var req request.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	list, err := h.svc.List(c.Request.Context(), uid, model.NotificationFilter{
		UnreadOnly: req.UnreadOnly,
		Type:       model.NotificationKind(req.Type),
		Limit:      req.Limit,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, list)
}

// UnreadCount 当前用户未读数
// GET /api/v1/notification/unreadCount
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	count, err := h.svc.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"count": count})
}

// MarkRead 单条已读
// POST /api/v1/notification/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), uid, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, n)
}

// MarkAllRead 全部已读
// POST /api/v1/notification/readAll
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	affected, err := h.svc.MarkAllRead(c.Request.Context(), uid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"updated": affected})
}
