package room

import (
	"sort"
	"sync"

	"github.com/Olamide1/loopline/pkg/errorx"
)

// Session 一条在线连接，由传输层持有
// UserID 只在建连时由可信 token 绑定一次
type Session interface {
	ID() string
	UserID() string
	// Send 非阻塞投递一帧，失败只代表这条连接已不可用
	Send(frame []byte) error
}

// PresenceJoiner 工作区在线集合的维护方（presence.Tracker）
type PresenceJoiner interface {
	JoinWorkspacePresence(workspaceID, userID string) bool
	LeaveWorkspacePresence(workspaceID, userID string) bool
}

// ErrInvalidRoom 非法房间键
var ErrInvalidRoom = errorx.New(errorx.CodeInvalidParam, "非法房间")

// Router 房间成员关系簿记
// 不做任何鉴权：频道/线程是否可见由上层在调用 Join 前判断
type Router struct {
	presence PresenceJoiner

	mu sync.RWMutex
	// rooms 房间 -> 会话ID -> 会话
	rooms map[string]map[string]Session
	// joined 会话ID -> 已加入的房间
	joined map[string]map[string]struct{}
}

// NewRouter 创建房间路由，presence 可为 nil
func NewRouter(presence PresenceJoiner) *Router {
	return &Router{
		presence: presence,
		rooms:    make(map[string]map[string]Session),
		joined:   make(map[string]map[string]struct{}),
	}
}

// Join 让会话加入房间，幂等
// 对工作区房间同时登记在线集合，返回值表示该用户是否因此新上线
func (r *Router) Join(s Session, key string) (bool, error) {
	kind, id, ok := Parse(key)
	if !ok || s == nil {
		return false, ErrInvalidRoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[key]
	if !ok {
		members = make(map[string]Session)
		r.rooms[key] = members
	}
	members[s.ID()] = s

	rooms, ok := r.joined[s.ID()]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[s.ID()] = rooms
	}
	rooms[key] = struct{}{}

	if kind == KindWorkspace && r.presence != nil {
		return r.presence.JoinWorkspacePresence(id, s.UserID()), nil
	}
	return false, nil
}

// Leave 让会话离开房间，幂等；不是成员时什么也不做
// 离开工作区房间且该用户没有其他会话留在房间里时，从在线集合移除，返回 true
func (r *Router) Leave(s Session, key string) bool {
	if s == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(s.ID(), key) {
		return false
	}
	kind, id, _ := Parse(key)
	if kind != KindWorkspace || r.presence == nil {
		return false
	}
	if r.userInRoomLocked(key, s.UserID()) {
		return false
	}
	return r.presence.LeaveWorkspacePresence(id, s.UserID())
}

// Drop 会话关闭时调用，移出所有房间并返回原先所在的房间
// 在线集合交给 presence.MarkOffline 处理
func (r *Router) Drop(s Session) []string {
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := r.joined[s.ID()]
	out := make([]string, 0, len(rooms))
	for key := range rooms {
		out = append(out, key)
		r.removeLocked(s.ID(), key)
	}
	delete(r.joined, s.ID())
	sort.Strings(out)
	return out
}

// RoomsFor 会话已加入房间的只读快照
func (r *Router) RoomsFor(s Session) []string {
	if s == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := r.joined[s.ID()]
	out := make([]string, 0, len(rooms))
	for key := range rooms {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Members 房间内会话的快照，调用方在锁外投递
func (r *Router) Members(key string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[key]
	out := make([]Session, 0, len(members))
	for _, s := range members {
		out = append(out, s)
	}
	return out
}

// IsMember 会话是否在房间内
func (r *Router) IsMember(s Session, key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[key][s.ID()]
	return ok
}

func (r *Router) removeLocked(sessionID, key string) bool {
	members, ok := r.rooms[key]
	if !ok {
		return false
	}
	if _, ok := members[sessionID]; !ok {
		return false
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, key)
	}
	if rooms, ok := r.joined[sessionID]; ok {
		delete(rooms, key)
	}
	return true
}

func (r *Router) userInRoomLocked(key, userID string) bool {
	for _, s := range r.rooms[key] {
		if s.UserID() == userID {
			return true
		}
	}
	return false
}
