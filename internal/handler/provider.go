// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"context"
	"net/http"

	"github.com/Olamide1/loopline/internal/model"
)

// NotificationService 通知查询与已读（notification.Engine）
type NotificationService interface {
	List(ctx context.Context, userRef any, filter model.NotificationFilter) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userRef any) (int64, error)
	MarkRead(ctx context.Context, userRef any, id string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userRef any) (int64, error)
}

// PresenceService 在线状态（realtime.Core）
type PresenceService interface {
	SetStatus(ctx context.Context, userRef any, status string, workspaceRef any) (model.UserStatus, error)
	OnlineUsers(workspaceRef any) []string
}

// UserLookup 持久化的用户状态（dao.UserRepository）
type UserLookup interface {
	FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error)
}

// EventPublisher 领域事件入口（chat.EventBroker）
type EventPublisher interface {
	Publish(ctx context.Context, ev model.DomainEvent) error
}

// SessionServer WebSocket 会话入口（websocket.Gateway）
type SessionServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string) error
}

// Handlers 聚合所有 Handler 实例，Router 层通过此结构访问各个 Handler
type Handlers struct {
	Ws           *WsHandler
	Notification *NotificationHandler
	Presence     *PresenceHandler
	Event        *EventHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(notifications NotificationService, presence PresenceService, users UserLookup, events EventPublisher, sessions SessionServer) *Handlers {
	return &Handlers{
		Ws:           NewWsHandler(sessions),
		Notification: NewNotificationHandler(notifications),
		Presence:     NewPresenceHandler(presence, users),
		Event:        NewEventHandler(events),
	}
}
