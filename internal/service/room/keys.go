// Package room 维护会话与广播房间之间的成员关系
// 房间不落库，只是派生出的字符串键；断线重连后随会话重新加入而重建
package room

import (
	"strings"

	"github.com/Olamide1/loopline/internal/service/identity"
)

// Kind 房间类型
type Kind string

const (
	KindWorkspace Kind = "workspace"
	KindChannel   Kind = "channel"
	KindThread    Kind = "thread"
	KindUser      Kind = "user"
)

// Key 组装房间键 <kind>:<id>，id 无法解析时返回空串
func Key(kind Kind, ref any) string {
	id := identity.Normalize(ref)
	if id == identity.Unresolved {
		return ""
	}
	return string(kind) + ":" + id
}

func WorkspaceRoom(ref any) string { return Key(KindWorkspace, ref) }
func ChannelRoom(ref any) string   { return Key(KindChannel, ref) }
func ThreadRoom(ref any) string    { return Key(KindThread, ref) }
func UserRoom(ref any) string      { return Key(KindUser, ref) }

// Parse 拆分房间键，未知类型或空 ID 返回 ok=false
func Parse(key string) (kind Kind, id string, ok bool) {
	k, rest, found := strings.Cut(key, ":")
	if !found || rest == "" {
		return "", "", false
	}
	switch Kind(k) {
	case KindWorkspace, KindChannel, KindThread, KindUser:
		return Kind(k), rest, true
	}
	return "", "", false
}
