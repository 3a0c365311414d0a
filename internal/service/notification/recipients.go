package notification

import (
	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/identity"
)

type target struct {
	user string
	kind model.NotificationKind
}

// recipients 按类型计算接收者，结果中永远不含 actor
// 同一用户只出现一次，mention 优先于 channel_message
func recipients(ev Event, r resolved) []target {
	var out []target
	seen := identity.NewSet(r.actor)
	add := func(ref any, kind model.NotificationKind) {
		id := identity.Normalize(ref)
		if seen.Add(id) {
			out = append(out, target{user: id, kind: kind})
		}
	}

	switch ev.Kind {
	case model.KindThreadReply:
		// 被 @ 的人和根作者都按 thread_reply 通知
		add(ev.RootAuthor, model.KindThreadReply)
		for _, m := range ev.Mentions {
			add(m, model.KindThreadReply)
		}

	case model.KindMention:
		for _, m := range ev.Mentions {
			add(m, model.KindMention)
		}

	case model.KindReaction, model.KindDM:
		add(ev.Counterpart, ev.Kind)

	case model.KindChannelMessage:
		for _, m := range ev.Mentions {
			add(m, model.KindMention)
		}
		add(ev.Workspace.Admin, model.KindChannelMessage)
		audience := ev.Workspace.Members
		if ev.Channel.Private {
			audience = ev.Channel.Members
		}
		for _, m := range audience {
			add(m, model.KindChannelMessage)
		}
	}
	return out
}
