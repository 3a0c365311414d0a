package notification

import (
	"context"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/identity"
	"github.com/Olamide1/loopline/pkg/constants"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// List 当前用户的通知，按创建时间倒序
func (e *Engine) List(ctx context.Context, userRef any, filter model.NotificationFilter) ([]model.Notification, error) {
	user := identity.Normalize(userRef)
	if user == identity.Unresolved {
		return nil, errorx.ErrUnresolvedID
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "未知通知类型 %q", filter.Type)
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = constants.DEFAULT_NOTIFY_LIMIT
	case filter.Limit > constants.MAX_NOTIFY_LIMIT:
		filter.Limit = constants.MAX_NOTIFY_LIMIT
	}
	list, err := e.store.List(ctx, user, filter)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

// UnreadCount 当前用户未读通知数
func (e *Engine) UnreadCount(ctx context.Context, userRef any) (int64, error) {
	user := identity.Normalize(userRef)
	if user == identity.Unresolved {
		return 0, errorx.ErrUnresolvedID
	}
	return e.counter.Count(ctx, user)
}

// MarkRead 接收者本人把一条通知标记为已读，重复调用不会重复扣减
// 非本人返回 ErrForbidden，不存在返回 ErrNotFound
func (e *Engine) MarkRead(ctx context.Context, userRef any, id string) (*model.Notification, error) {
	user := identity.Normalize(userRef)
	if user == identity.Unresolved {
		return nil, errorx.ErrUnresolvedID
	}
	n, err := e.store.FindByUuid(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.Equal(n.User, user) {
		return nil, errorx.ErrForbidden
	}
	if n.Read {
		return n, nil
	}

	now := e.now()
	flipped, err := e.store.MarkRead(ctx, n.Uuid, now)
	if err != nil {
		return nil, err
	}
	n.Read = true
	n.ReadAt = &now
	n.UnreadKey = nil
	if flipped {
		e.pushCount(ctx, user)
	}
	return n, nil
}

// MarkAllRead 当前用户全部未读置为已读，返回受影响条数
func (e *Engine) MarkAllRead(ctx context.Context, userRef any) (int64, error) {
	user := identity.Normalize(userRef)
	if user == identity.Unresolved {
		return 0, errorx.ErrUnresolvedID
	}
	affected, err := e.store.MarkAllRead(ctx, user, e.now())
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		e.pushCount(ctx, user)
	}
	return affected, nil
}
