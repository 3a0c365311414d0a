// Package presence 维护工作区在线集合与用户持久化在线状态
//
// 在线集合只存在于进程内存，进程重启后为空，由会话重新加入工作区房间重建。
// 已知限制：MarkOffline 按会话关闭调用，多标签页用户关闭任意一个标签页
// 都会被移出所有工作区在线集合并标记为 offline。
package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/identity"
	"github.com/Olamide1/loopline/internal/service/room"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// 在线状态事件
const (
	EventUserOnline        = "user_online"
	EventUserOffline       = "user_offline"
	EventUserStatusChanged = "user_status_changed"
)

// StatusStore 用户状态持久化，返回更新前的状态
type StatusStore interface {
	UpdateStatus(ctx context.Context, userID string, status model.UserStatus, lastSeen time.Time) (model.UserStatus, error)
}

// Broadcaster 向房间推送事件（dispatch.Dispatcher）
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, payload any) error
}

// Change 在线状态变更的推送载荷
type Change struct {
	UserID      string `json:"userId"`
	Status      string `json:"status,omitempty"`
	WorkspaceID string `json:"workspaceId"`
}

// Tracker 在线状态追踪器
// 在线集合只能由 Tracker 自身和 room.Router 修改
type Tracker struct {
	store       StatusStore
	broadcaster Broadcaster
	now         func() time.Time

	mu sync.RWMutex
	// online 工作区ID -> 在线用户ID集合
	online map[string]map[string]struct{}
}

// NewTracker 创建在线状态追踪器
func NewTracker(store StatusStore) *Tracker {
	return &Tracker{
		store:  store,
		now:    time.Now,
		online: make(map[string]map[string]struct{}),
	}
}

// SetBroadcaster 注入推送器，SetExplicitStatus 指定工作区时使用
func (t *Tracker) SetBroadcaster(b Broadcaster) {
	t.broadcaster = b
}

// MarkOnline 持久化状态置为 online 并刷新最后在线时间，返回之前的状态
func (t *Tracker) MarkOnline(ctx context.Context, userRef any) (model.UserStatus, error) {
	userID := identity.Normalize(userRef)
	if userID == identity.Unresolved {
		return "", errorx.ErrUnresolvedID
	}
	prev, err := t.store.UpdateStatus(ctx, userID, model.StatusOnline, t.now())
	if err != nil {
		return "", errorx.Wrapf(err, errorx.GetCode(err), "标记用户 %s 在线", userID)
	}
	return prev, nil
}

// MarkOffline 持久化状态置为 offline，并把用户移出所有工作区在线集合
// 返回发生变化的工作区（调用方需要为每个工作区广播一次 user_offline）
// 内存集合总是先更新，即使持久化失败也保证不会残留在线
func (t *Tracker) MarkOffline(ctx context.Context, userRef any) ([]string, error) {
	userID := identity.Normalize(userRef)
	if userID == identity.Unresolved {
		return nil, errorx.ErrUnresolvedID
	}

	t.mu.Lock()
	var changed []string
	for workspaceID, users := range t.online {
		if _, ok := users[userID]; !ok {
			continue
		}
		delete(users, userID)
		if len(users) == 0 {
			delete(t.online, workspaceID)
		}
		changed = append(changed, workspaceID)
	}
	t.mu.Unlock()
	sort.Strings(changed)

	if _, err := t.store.UpdateStatus(ctx, userID, model.StatusOffline, t.now()); err != nil {
		return changed, errorx.Wrapf(err, errorx.GetCode(err), "标记用户 %s 离线", userID)
	}
	return changed, nil
}

// JoinWorkspacePresence 把用户加入工作区在线集合，幂等
// 返回 true 表示此前不在集合中
func (t *Tracker) JoinWorkspacePresence(workspaceRef, userRef string) bool {
	workspaceID, userID := identity.Normalize(workspaceRef), identity.Normalize(userRef)
	if workspaceID == identity.Unresolved || userID == identity.Unresolved {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.online[workspaceID]
	if !ok {
		users = make(map[string]struct{})
		t.online[workspaceID] = users
	}
	if _, ok := users[userID]; ok {
		return false
	}
	users[userID] = struct{}{}
	return true
}

// LeaveWorkspacePresence 把用户移出单个工作区在线集合
func (t *Tracker) LeaveWorkspacePresence(workspaceRef, userRef string) bool {
	workspaceID, userID := identity.Normalize(workspaceRef), identity.Normalize(userRef)
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.online[workspaceID]
	if !ok {
		return false
	}
	if _, ok := users[userID]; !ok {
		return false
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(t.online, workspaceID)
	}
	return true
}

// SetExplicitStatus 用户手动设置状态 online/offline/away，其余值返回 ErrInvalidStatus
// workspaceRef 非空时向该工作区广播 user_status_changed
// 手动设置不改变内存在线集合，集合只跟随连接
func (t *Tracker) SetExplicitStatus(ctx context.Context, userRef any, status string, workspaceRef any) (model.UserStatus, error) {
	next, ok := model.ParseUserStatus(status)
	if !ok {
		return "", errorx.ErrInvalidStatus
	}
	userID := identity.Normalize(userRef)
	if userID == identity.Unresolved {
		return "", errorx.ErrUnresolvedID
	}
	if _, err := t.store.UpdateStatus(ctx, userID, next, t.now()); err != nil {
		return "", errorx.Wrapf(err, errorx.GetCode(err), "更新用户 %s 状态", userID)
	}

	workspaceID := identity.Normalize(workspaceRef)
	if workspaceID != identity.Unresolved && t.broadcaster != nil {
		change := Change{UserID: userID, Status: string(next), WorkspaceID: workspaceID}
		if err := t.broadcaster.Broadcast(ctx, room.WorkspaceRoom(workspaceID), EventUserStatusChanged, change); err != nil {
			zap.L().Warn("广播状态变更失败", zap.String("user", userID), zap.String("workspace", workspaceID), zap.Error(err))
		}
	}
	return next, nil
}

// OnlineUsers 工作区在线用户快照（字典序）
func (t *Tracker) OnlineUsers(workspaceRef any) []string {
	workspaceID := identity.Normalize(workspaceRef)
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := t.online[workspaceID]
	out := make([]string, 0, len(users))
	for id := range users {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsOnline 用户是否在工作区在线集合中
func (t *Tracker) IsOnline(workspaceRef, userRef any) bool {
	workspaceID, userID := identity.Normalize(workspaceRef), identity.Normalize(userRef)
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[workspaceID][userID]
	return ok
}

// Workspaces 用户当前所在的在线工作区
func (t *Tracker) Workspaces(userRef any) []string {
	userID := identity.Normalize(userRef)
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []string
	for workspaceID, users := range t.online {
		if _, ok := users[userID]; ok {
			out = append(out, workspaceID)
		}
	}
	sort.Strings(out)
	return out
}
