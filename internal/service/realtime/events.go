package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"maps"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/dto/request"
	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/dispatch"
	"github.com/Olamide1/loopline/internal/service/identity"
	"github.com/Olamide1/loopline/internal/service/notification"
	"github.com/Olamide1/loopline/internal/service/room"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// Handle 按类型分发一条领域事件，供事件代理的消费端调用
func (c *Core) Handle(ctx context.Context, ev model.DomainEvent) error {
	var err error
	switch ev.Type {
	case model.EventMessagePosted:
		var req request.MessagePostedRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			_, err = c.MessagePosted(ctx, req)
		}
	case model.EventReactionToggled:
		var req request.ReactionToggledRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			_, err = c.ReactionToggled(ctx, req)
		}
	case model.EventMessageRead:
		var req request.MessageReadRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			err = c.MessageRead(ctx, req)
		}
	case model.EventDMSent:
		var req request.DirectMessageRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			_, err = c.DirectMessageSent(ctx, req)
		}
	case model.EventMessageUpdated:
		var req request.MessageUpdatedRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			err = c.MessageUpdated(ctx, req)
		}
	case model.EventChannelCreated:
		var req request.ChannelChangedRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			err = c.ChannelCreated(ctx, req)
		}
	case model.EventChannelUpdated:
		var req request.ChannelChangedRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			err = c.ChannelUpdated(ctx, req)
		}
	case model.EventChannelRead:
		var req request.ChannelReadRequest
		if err = json.Unmarshal(ev.Payload, &req); err == nil {
			err = c.ChannelRead(ctx, req)
		}
	default:
		return errorx.Newf(errorx.CodeInvalidParam, "未知事件类型 %q", ev.Type)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return errorx.Wrapf(err, errorx.CodeInvalidParam, "解析事件 %s", ev.Type)
	}
	return err
}

// MessagePosted 新消息：先广播到频道/线程与工作区，再生成通知
// 通知失败不影响消息本身，只随返回值报告
func (c *Core) MessagePosted(ctx context.Context, req request.MessagePostedRequest) ([]model.Notification, error) {
	channelID := identity.Normalize(req.Channel.ID)
	messageID := identity.Normalize(req.Message["_id"])
	actor := identity.Normalize(req.Message["user"])
	if channelID == identity.Unresolved || messageID == identity.Unresolved {
		return nil, errorx.ErrMissingField
	}
	if actor == identity.Unresolved {
		return nil, errorx.ErrUnresolvedID
	}

	msg := maps.Clone(req.Message)
	msg["channel"] = channelID
	threadParent := identity.Normalize(msg["threadParent"])

	if threadParent != identity.Unresolved {
		msg["threadParent"] = threadParent
		keys := []string{room.ThreadRoom(threadParent), room.ChannelRoom(channelID)}
		c.logBroadcast(c.dispatcher.BroadcastMany(ctx, keys, dispatch.EventThreadReplyCreated, msg))
	} else {
		c.logBroadcast(c.dispatcher.Broadcast(ctx, room.ChannelRoom(channelID), dispatch.EventMessageCreated, msg))
	}

	workspaceID := identity.Normalize(req.Workspace.ID)
	if workspaceID == identity.Unresolved {
		workspaceID = identity.Normalize(req.Channel.Workspace)
	}
	if workspaceID != identity.Unresolved {
		wsMsg := maps.Clone(msg)
		wsMsg["workspaceId"] = workspaceID
		wsRoom := room.WorkspaceRoom(workspaceID)
		c.logBroadcast(c.dispatcher.Broadcast(ctx, wsRoom, dispatch.EventMessageCreated, wsMsg))
		activity := ActivityPayload{Type: "message", Channel: channelID, Message: msg}
		c.logBroadcast(c.dispatcher.Broadcast(ctx, wsRoom, dispatch.EventWorkspaceActivity, activity))
	}

	mentions, _ := msg["mentions"].([]any)
	ev := notification.Event{
		Actor:     actor,
		MessageID: messageID,
		Workspace: notification.Workspace{
			ID:      workspaceID,
			Admin:   req.Workspace.Admin,
			Members: req.Workspace.Members,
		},
		Channel: &notification.Channel{
			ID:      channelID,
			Private: req.Channel.IsPrivate(),
			Members: req.Channel.Members,
		},
		Mentions: mentions,
	}
	if threadParent != identity.Unresolved {
		ev.Kind = model.KindThreadReply
		ev.ThreadParent = threadParent
		ev.RootAuthor = req.ThreadRoot["user"]
	} else {
		ev.Kind = model.KindChannelMessage
	}
	return c.notify(ctx, ev)
}

// ReactionToggled 表情回应：广播增量，新增回应时通知消息作者
func (c *Core) ReactionToggled(ctx context.Context, req request.ReactionToggledRequest) ([]model.Notification, error) {
	channelID := identity.Normalize(req.Channel)
	messageID := identity.Normalize(req.Message["_id"])
	if channelID == identity.Unresolved || messageID == identity.Unresolved {
		return nil, errorx.ErrMissingField
	}
	reactions := req.Message["reactions"]
	if reactions == nil {
		reactions = []any{}
	}
	payload := ReactionPayload{ID: messageID, Reactions: reactions, Channel: channelID}
	keys := []string{room.ChannelRoom(channelID)}
	threadParent := identity.Normalize(req.Message["threadParent"])
	if threadParent != identity.Unresolved {
		keys = append(keys, room.ThreadRoom(threadParent))
	}
	c.logBroadcast(c.dispatcher.BroadcastMany(ctx, keys, dispatch.EventReactionUpdated, payload))

	if !req.Added {
		return nil, nil
	}
	return c.notify(ctx, notification.Event{
		Kind:         model.KindReaction,
		Actor:        req.Actor,
		MessageID:    messageID,
		Workspace:    notification.Workspace{ID: req.Workspace.ID},
		Channel:      &notification.Channel{ID: channelID},
		ThreadParent: threadParent,
		Counterpart:  req.Message["user"],
	})
}

// MessageRead 已读回执只广播，不产生通知
func (c *Core) MessageRead(ctx context.Context, req request.MessageReadRequest) error {
	channelID := identity.Normalize(req.Channel)
	messageID := identity.Normalize(req.MessageID)
	if channelID == identity.Unresolved || messageID == identity.Unresolved {
		return errorx.ErrMissingField
	}
	readBy := req.ReadBy
	if readBy == nil {
		readBy = []any{}
	}
	payload := ReadPayload{MessageID: messageID, ReadBy: readBy, Channel: channelID}
	keys := []string{room.ChannelRoom(channelID)}
	if parent := identity.Normalize(req.ThreadParent); parent != identity.Unresolved {
		keys = append(keys, room.ThreadRoom(parent))
	}
	return c.dispatcher.BroadcastMany(ctx, keys, dispatch.EventMessageRead, payload)
}

// DirectMessageSent 私信：推送给每个参与者的个人房间，并通知除发送者外的参与者
func (c *Core) DirectMessageSent(ctx context.Context, req request.DirectMessageRequest) ([]model.Notification, error) {
	messageID := identity.Normalize(req.Message["_id"])
	sender := identity.Normalize(req.Message["user"])
	if messageID == identity.Unresolved {
		return nil, errorx.ErrMissingField
	}
	if sender == identity.Unresolved {
		return nil, errorx.ErrUnresolvedID
	}
	participants, _ := req.Conversation["participants"].([]any)
	members := identity.NewSet(participants...)
	members.Add(sender)

	payload := DirectMessagePayload{Conversation: req.Conversation, Message: req.Message}
	for _, p := range members.Slice() {
		c.logBroadcast(c.dispatcher.Broadcast(ctx, room.UserRoom(p), dispatch.EventDMMessage, payload))
	}

	var (
		delivered []model.Notification
		errs      []error
	)
	for _, p := range members.Slice() {
		if p == sender {
			continue
		}
		out, err := c.notify(ctx, notification.Event{
			Kind:        model.KindDM,
			Actor:       sender,
			MessageID:   messageID,
			Workspace:   notification.Workspace{ID: req.Conversation["workspace"]},
			Counterpart: p,
		})
		delivered = append(delivered, out...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return delivered, errors.Join(errs...)
}

// MessageUpdated 消息编辑后把新内容推送到所在频道
func (c *Core) MessageUpdated(ctx context.Context, req request.MessageUpdatedRequest) error {
	messageID := identity.Normalize(req.Message["_id"])
	channelID := identity.Normalize(req.Message["channel"])
	if messageID == identity.Unresolved || channelID == identity.Unresolved {
		return errorx.ErrMissingField
	}
	msg := maps.Clone(req.Message)
	msg["channel"] = channelID
	return c.dispatcher.Broadcast(ctx, room.ChannelRoom(channelID), dispatch.EventMessageUpdated, msg)
}

// ChannelCreated 新频道推送给整个工作区，负载为完整频道
func (c *Core) ChannelCreated(ctx context.Context, req request.ChannelChangedRequest) error {
	channelID, workspaceID, err := channelScope(req)
	if err != nil {
		return err
	}
	ch := maps.Clone(req.Channel)
	ch["_id"] = channelID
	ch["workspace"] = workspaceID
	return c.dispatcher.Broadcast(ctx, room.WorkspaceRoom(workspaceID), dispatch.EventChannelCreated, ch)
}

// ChannelUpdated 频道资料变化只推送可变字段
func (c *Core) ChannelUpdated(ctx context.Context, req request.ChannelChangedRequest) error {
	channelID, workspaceID, err := channelScope(req)
	if err != nil {
		return err
	}
	payload := ChannelUpdatedPayload{
		ID:          channelID,
		Name:        req.Channel["name"],
		Privacy:     req.Channel["privacy"],
		Members:     req.Channel["members"],
		Description: req.Channel["description"],
	}
	return c.dispatcher.Broadcast(ctx, room.WorkspaceRoom(workspaceID), dispatch.EventChannelUpdated, payload)
}

// ChannelRead 用户读完频道，工作区内的其他会话据此清掉未读角标
func (c *Core) ChannelRead(ctx context.Context, req request.ChannelReadRequest) error {
	channelID := identity.Normalize(req.Channel)
	workspaceID := identity.Normalize(req.Workspace)
	if channelID == identity.Unresolved || workspaceID == identity.Unresolved {
		return errorx.ErrMissingField
	}
	reader := identity.Normalize(req.Reader)
	if reader == identity.Unresolved {
		return errorx.ErrUnresolvedID
	}
	payload := ChannelReadPayload{ChannelID: channelID, UserID: reader}
	return c.dispatcher.Broadcast(ctx, room.WorkspaceRoom(workspaceID), dispatch.EventChannelRead, payload)
}

func channelScope(req request.ChannelChangedRequest) (channelID, workspaceID string, err error) {
	channelID = identity.Normalize(req.Channel["_id"])
	workspaceID = identity.Normalize(req.Workspace)
	if workspaceID == identity.Unresolved {
		workspaceID = identity.Normalize(req.Channel["workspace"])
	}
	if channelID == identity.Unresolved || workspaceID == identity.Unresolved {
		return "", "", errorx.ErrMissingField
	}
	return channelID, workspaceID, nil
}

func (c *Core) notify(ctx context.Context, ev notification.Event) ([]model.Notification, error) {
	delivered, err := c.engine.Notify(ctx, ev)
	if err != nil {
		zap.L().Warn("生成通知失败",
			zap.String("type", string(ev.Kind)),
			zap.String("message", identity.Normalize(ev.MessageID)),
			zap.Error(err))
	}
	return delivered, err
}

func (c *Core) logBroadcast(err error) {
	if err != nil {
		zap.L().Warn("广播失败", zap.Error(err))
	}
}
