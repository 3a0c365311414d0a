// Package handler 提供 HTTP 请求处理器
// 本文件接收 REST 层的写操作事件，校验发起人后投递给事件代理
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Olamide1/loopline/internal/dto/request"
	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/identity"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// EventHandler 领域事件请求处理器
type EventHandler struct {
	publisher EventPublisher
}

func NewEventHandler(publisher EventPublisher) *EventHandler {
	return &EventHandler{publisher: publisher}
}

// MessagePosted 新消息或线程回复
// POST /api/v1/event/message
func (h *EventHandler) MessagePosted(c *gin.Context) {
	var req request.MessagePostedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := claimActor(req.Message, "user", uid); err != nil {
		HandleError(c, err)
		return
	}
	h.publish(c, model.EventMessagePosted, req.Channel.ID, req)
}

// ReactionToggled 表情回应
// POST /api/v1/event/reaction
func (h *EventHandler) ReactionToggled(c *gin.Context) {
	var req request.ReactionToggledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if req.Actor == nil {
		req.Actor = uid
	} else if !identity.Equal(req.Actor, uid) {
		HandleError(c, errorx.ErrForbidden)
		return
	}
	h.publish(c, model.EventReactionToggled, req.Channel, req)
}

// MessageRead 已读回执
// POST /api/v1/event/read
func (h *EventHandler) MessageRead(c *gin.Context) {
	var req request.MessageReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if req.Reader == nil {
		req.Reader = uid
	} else if !identity.Equal(req.Reader, uid) {
		HandleError(c, errorx.ErrForbidden)
		return
	}
	h.publish(c, model.EventMessageRead, req.Channel, req)
}

// DirectMessageSent 私信
// POST /api/v1/event/dm
func (h *EventHandler) DirectMessageSent(c *gin.Context) {
	var req request.DirectMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := claimActor(req.Message, "user", uid); err != nil {
		HandleError(c, err)
		return
	}
	h.publish(c, model.EventDMSent, identity.Normalize(req.Conversation["_id"]), req)
}

// MessageUpdated 消息编辑，只有作者本人可以发起
// POST /api/v1/event/message/updated
func (h *EventHandler) MessageUpdated(c *gin.Context) {
	var req request.MessageUpdatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := claimActor(req.Message, "user", uid); err != nil {
		HandleError(c, err)
		return
	}
	h.publish(c, model.EventMessageUpdated, identity.Normalize(req.Message["channel"]), req)
}

// ChannelCreated 新建频道
// POST /api/v1/event/channel/created
func (h *EventHandler) ChannelCreated(c *gin.Context) {
	h.channelChanged(c, model.EventChannelCreated)
}

// ChannelUpdated 频道资料更新
// POST /api/v1/event/channel/updated
func (h *EventHandler) ChannelUpdated(c *gin.Context) {
	h.channelChanged(c, model.EventChannelUpdated)
}

func (h *EventHandler) channelChanged(c *gin.Context, eventType string) {
	var req request.ChannelChangedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	h.publish(c, eventType, identity.Normalize(req.Channel["_id"]), req)
}

// ChannelRead 频道标记已读
// POST /api/v1/event/channel/read
func (h *EventHandler) ChannelRead(c *gin.Context) {
	var req request.ChannelReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid, err := currentUser(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if req.Reader == nil {
		req.Reader = uid
	} else if !identity.Equal(req.Reader, uid) {
		HandleError(c, errorx.ErrForbidden)
		return
	}
	h.publish(c, model.EventChannelRead, req.Channel, req)
}

func (h *EventHandler) publish(c *gin.Context, eventType, key string, payload any) {
	ev, err := model.NewDomainEvent(eventType, key, payload)
	if err != nil {
		HandleError(c, errorx.Wrap(err, errorx.CodeInvalidParam, "事件序列化失败"))
		return
	}
	if err := h.publisher.Publish(c.Request.Context(), ev); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"type": ev.Type, "key": ev.Key})
}

// claimActor 发起人缺省为当前用户，显式给出时必须是当前用户
func claimActor(doc map[string]any, field, uid string) error {
	actor, ok := doc[field]
	if !ok || actor == nil {
		doc[field] = uid
		return nil
	}
	if !identity.Equal(actor, uid) {
		return errorx.ErrForbidden
	}
	return nil
}
