// Package realtime 组装在线状态、房间、广播与通知引擎，对传输层和事件入口暴露统一调用
package realtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/dispatch"
	"github.com/Olamide1/loopline/internal/service/identity"
	"github.com/Olamide1/loopline/internal/service/notification"
	"github.com/Olamide1/loopline/internal/service/presence"
	"github.com/Olamide1/loopline/internal/service/room"
)

// Core 实时核心，进程内只需一个实例，由 main 注入到传输层与 handler
type Core struct {
	tracker    *presence.Tracker
	router     *room.Router
	dispatcher *dispatch.Dispatcher
	engine     *notification.Engine
}

// NewCore 创建实时核心；cache 可为 nil
func NewCore(users presence.StatusStore, notifications notification.Store, cache notification.Cache, concurrency int) *Core {
	tracker := presence.NewTracker(users)
	router := room.NewRouter(tracker)
	dispatcher := dispatch.NewDispatcher(router)
	tracker.SetBroadcaster(dispatcher)
	return &Core{
		tracker:    tracker,
		router:     router,
		dispatcher: dispatcher,
		engine:     notification.NewEngine(notifications, dispatcher, cache, concurrency),
	}
}

func (c *Core) Router() *room.Router                { return c.router }
func (c *Core) Notifications() *notification.Engine { return c.engine }

// Connect 会话建立：加入个人房间并标记在线
// 状态持久化失败只记日志，不阻止连接
func (c *Core) Connect(ctx context.Context, s room.Session) error {
	if _, err := c.router.Join(s, room.UserRoom(s.UserID())); err != nil {
		return err
	}
	prev, err := c.tracker.MarkOnline(ctx, s.UserID())
	if err != nil {
		zap.L().Warn("标记在线失败", zap.String("user", s.UserID()), zap.Error(err))
		return nil
	}
	zap.L().Info("会话上线",
		zap.String("user", s.UserID()),
		zap.String("session", s.ID()),
		zap.String("prev", string(prev)))
	return nil
}

// Disconnect 会话关闭：移出所有房间、标记离线，并向每个状态发生变化的工作区广播一次 user_offline
func (c *Core) Disconnect(ctx context.Context, s room.Session) error {
	rooms := c.router.Drop(s)
	changed, err := c.tracker.MarkOffline(ctx, s.UserID())
	for _, workspaceID := range changed {
		c.broadcastPresence(ctx, workspaceID, s.UserID(), presence.EventUserOffline)
	}
	zap.L().Info("会话下线",
		zap.String("user", s.UserID()),
		zap.String("session", s.ID()),
		zap.Int("rooms", len(rooms)),
		zap.Strings("workspaces", changed))
	return err
}

// JoinWorkspace 加入工作区房间，用户因此新上线时广播 user_online
func (c *Core) JoinWorkspace(ctx context.Context, s room.Session, workspaceRef any) error {
	key := room.WorkspaceRoom(workspaceRef)
	newlyOnline, err := c.router.Join(s, key)
	if err != nil {
		return err
	}
	if newlyOnline {
		c.broadcastPresence(ctx, identity.Normalize(workspaceRef), s.UserID(), presence.EventUserOnline)
	}
	return nil
}

// LeaveWorkspace 离开工作区房间，用户在该工作区已无会话时广播 user_offline
func (c *Core) LeaveWorkspace(ctx context.Context, s room.Session, workspaceRef any) {
	if c.router.Leave(s, room.WorkspaceRoom(workspaceRef)) {
		c.broadcastPresence(ctx, identity.Normalize(workspaceRef), s.UserID(), presence.EventUserOffline)
	}
}

// JoinChannel 加入频道房间并回执 joined_channel
// 频道可见性由调用方在此之前判断，这里不再校验
func (c *Core) JoinChannel(ctx context.Context, s room.Session, channelRef any) error {
	channelID := identity.Normalize(channelRef)
	if _, err := c.router.Join(s, room.ChannelRoom(channelID)); err != nil {
		return err
	}
	return c.dispatcher.SendTo(s, dispatch.EventJoinedChannel, JoinedChannelPayload{ChannelID: channelID})
}

func (c *Core) LeaveChannel(s room.Session, channelRef any) {
	c.router.Leave(s, room.ChannelRoom(channelRef))
}

func (c *Core) JoinThread(s room.Session, parentRef any) error {
	_, err := c.router.Join(s, room.ThreadRoom(parentRef))
	return err
}

func (c *Core) LeaveThread(s room.Session, parentRef any) {
	c.router.Leave(s, room.ThreadRoom(parentRef))
}

// SetStatus 手动设置状态，workspaceRef 非空时向该工作区广播
func (c *Core) SetStatus(ctx context.Context, userRef any, status string, workspaceRef any) (model.UserStatus, error) {
	return c.tracker.SetExplicitStatus(ctx, userRef, status, workspaceRef)
}

// Typing 输入中提示，转发给频道内除自己以外的会话
func (c *Core) Typing(ctx context.Context, s room.Session, channelRef any) error {
	return c.relayTyping(ctx, s, channelRef, dispatch.EventUserTyping)
}

func (c *Core) StopTyping(ctx context.Context, s room.Session, channelRef any) error {
	return c.relayTyping(ctx, s, channelRef, dispatch.EventUserStoppedTyping)
}

// OnlineUsers 工作区在线用户
func (c *Core) OnlineUsers(workspaceRef any) []string {
	return c.tracker.OnlineUsers(workspaceRef)
}

func (c *Core) relayTyping(ctx context.Context, s room.Session, channelRef any, event string) error {
	channelID := identity.Normalize(channelRef)
	payload := TypingPayload{UserID: s.UserID(), Channel: channelID}
	return c.dispatcher.BroadcastExcept(ctx, room.ChannelRoom(channelID), event, payload, s.ID())
}

func (c *Core) broadcastPresence(ctx context.Context, workspaceID, userID, event string) {
	change := presence.Change{UserID: userID, WorkspaceID: workspaceID}
	if err := c.dispatcher.Broadcast(ctx, room.WorkspaceRoom(workspaceID), event, change); err != nil {
		zap.L().Warn("广播在线状态失败",
			zap.String("event", event),
			zap.String("workspace", workspaceID),
			zap.Error(err))
	}
}
