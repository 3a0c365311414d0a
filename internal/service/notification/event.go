// Package notification 计算通知接收者、去重并持久化通知，再推送到接收者的个人房间
package notification

import (
	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/identity"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// Workspace 已解析的工作区
type Workspace struct {
	ID      any
	Admin   any
	Members []any
}

// Channel 已解析的频道
type Channel struct {
	ID      any
	Private bool
	Members []any
}

// Event 一次需要通知的领域事件，调用方保证引用的实体都已取出
type Event struct {
	Kind      model.NotificationKind
	Actor     any
	MessageID any
	Workspace Workspace
	// Channel dm 可为空
	Channel *Channel
	// ThreadParent thread_reply 必填
	ThreadParent any
	// RootAuthor 线程根消息作者
	RootAuthor any
	// Counterpart reaction 时为消息作者，dm 时为会话另一方
	Counterpart any
	Mentions    []any
}

// resolved 规范化后的事件字段
type resolved struct {
	kind         model.NotificationKind
	actor        string
	message      string
	workspace    string
	channel      string
	threadParent string
}

// validate 在任何副作用之前校验输入
func (ev Event) validate() (resolved, error) {
	r := resolved{kind: ev.Kind}
	if !ev.Kind.Valid() {
		return r, errorx.Newf(errorx.CodeInvalidParam, "未知通知类型 %q", ev.Kind)
	}
	if r.actor = identity.Normalize(ev.Actor); r.actor == identity.Unresolved {
		return r, errorx.Wrap(errorx.ErrUnresolvedID, errorx.CodeUnresolvedID, "actor")
	}
	if r.message = identity.Normalize(ev.MessageID); r.message == identity.Unresolved {
		return r, missing("message")
	}
	r.workspace = identity.Normalize(ev.Workspace.ID)
	if r.workspace == identity.Unresolved && ev.Kind != model.KindDM {
		return r, missing("workspace")
	}
	if ev.Channel != nil {
		r.channel = identity.Normalize(ev.Channel.ID)
	}
	r.threadParent = identity.Normalize(ev.ThreadParent)

	switch ev.Kind {
	case model.KindThreadReply:
		if r.threadParent == identity.Unresolved {
			return r, missing("threadParent")
		}
	case model.KindReaction, model.KindDM:
		if identity.Normalize(ev.Counterpart) == identity.Unresolved {
			return r, missing("counterpart")
		}
	case model.KindChannelMessage:
		if r.channel == identity.Unresolved {
			return r, missing("channel")
		}
	}
	return r, nil
}

func missing(field string) error {
	return errorx.Newf(errorx.CodeMissingField, "缺少必填字段 %s", field)
}
