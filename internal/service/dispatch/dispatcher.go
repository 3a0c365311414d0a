// Package dispatch 把已经成型的出站事件投递给房间内的所有会话
// 纯瞬时投递，不做持久化：通知的持久化由 notification 负责，消息本身由消息存储负责
package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/service/room"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// 出站事件名
const (
	EventNotification             = "notification"
	EventNotificationCountUpdated = "notification_count_updated"
	EventMessageCreated           = "message_created"
	EventThreadReplyCreated       = "thread_reply_created"
	EventWorkspaceActivity        = "workspace_activity"
	EventReactionUpdated          = "reaction_updated"
	EventMessageRead              = "message_read"
	EventDMMessage                = "dm_message"
	EventMessageUpdated           = "message_updated"
	EventChannelCreated           = "channel_created"
	EventChannelUpdated           = "channel_updated"
	EventChannelRead              = "channel_read"
	EventUserTyping               = "user_typing"
	EventUserStoppedTyping        = "user_stopped_typing"
	EventJoinedChannel            = "joined_channel"
	EventError                    = "error"
)

// MemberSource 房间成员快照来源（room.Router）
type MemberSource interface {
	Members(key string) []room.Session
}

// Envelope 下行帧
type Envelope struct {
	Event string `json:"event"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data"`
}

// Dispatcher 房间广播器
type Dispatcher struct {
	members MemberSource
}

// NewDispatcher 创建广播器
func NewDispatcher(members MemberSource) *Dispatcher {
	return &Dispatcher{members: members}
}

// Broadcast 投递给房间内所有会话；房间为空不是错误
// 单条连接投递失败只记日志，不重试：持久化的通知是接收方重连后追赶的依据
func (d *Dispatcher) Broadcast(ctx context.Context, key, event string, payload any) error {
	return d.broadcast(ctx, key, event, payload, "")
}

// BroadcastExcept 同 Broadcast，但跳过指定会话（如输入中提示不回显给自己）
func (d *Dispatcher) BroadcastExcept(ctx context.Context, key, event string, payload any, exceptSessionID string) error {
	return d.broadcast(ctx, key, event, payload, exceptSessionID)
}

// BroadcastMany 对每个房间各调用一次 Broadcast
func (d *Dispatcher) BroadcastMany(ctx context.Context, keys []string, event string, payload any) error {
	var errs []error
	for _, key := range keys {
		if err := d.Broadcast(ctx, key, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendTo 直接投递给单个会话（用于回执/错误帧）
func (d *Dispatcher) SendTo(s room.Session, event string, payload any) error {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeTransport, "序列化事件 %s", event)
	}
	return s.Send(frame)
}

func (d *Dispatcher) broadcast(ctx context.Context, key, event string, payload any, except string) error {
	if _, _, ok := room.Parse(key); !ok {
		return room.ErrInvalidRoom
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	targets := d.members.Members(key)
	if len(targets) == 0 {
		return nil
	}

	frame, err := json.Marshal(Envelope{Event: event, Room: key, Data: payload})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeTransport, "序列化事件 %s", event)
	}

	sent := 0
	for _, s := range targets {
		if except != "" && s.ID() == except {
			continue
		}
		if err := s.Send(frame); err != nil {
			zap.L().Debug("会话投递失败，丢弃",
				zap.String("room", key),
				zap.String("event", event),
				zap.String("session", s.ID()),
				zap.Error(err))
			continue
		}
		sent++
	}
	zap.L().Debug("broadcast", zap.String("room", key), zap.String("event", event), zap.Int("sent", sent))
	return nil
}
