package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/dispatch"
	"github.com/Olamide1/loopline/internal/service/identity"
	"github.com/Olamide1/loopline/internal/service/room"
	"github.com/Olamide1/loopline/pkg/constants"
	"github.com/Olamide1/loopline/pkg/errorx"
	"github.com/Olamide1/loopline/pkg/util/snowflake"
)

// Store 通知持久化（MySQL 或 MongoDB 实现）
type Store interface {
	// FindUnread 按未读去重键查找，不存在返回 nil, nil
	FindUnread(ctx context.Context, unreadKey string) (*model.Notification, error)
	// Create 新建通知；同一未读去重键已存在时返回 CodeDuplicate
	Create(ctx context.Context, n *model.Notification) error
	CountUnread(ctx context.Context, user string) (int64, error)
	List(ctx context.Context, user string, filter model.NotificationFilter) ([]model.Notification, error)
	// FindByUuid 不存在返回 CodeNotFound
	FindByUuid(ctx context.Context, uuid string) (*model.Notification, error)
	// MarkRead 置为已读并清空去重键，返回是否由未读变为已读
	MarkRead(ctx context.Context, uuid string, readAt time.Time) (bool, error)
	MarkAllRead(ctx context.Context, user string, readAt time.Time) (int64, error)
}

// Publisher 房间推送（dispatch.Dispatcher）
type Publisher interface {
	Broadcast(ctx context.Context, room, event string, payload any) error
}

// CountPayload notification_count_updated 载荷
type CountPayload struct {
	Count int64 `json:"count"`
}

// Engine 通知去重与扇出引擎
type Engine struct {
	store       Store
	publisher   Publisher
	counter     *unreadCounter
	concurrency int

	newID func() string
	now   func() time.Time
}

// NewEngine 创建引擎；cache 可为 nil，concurrency<=0 时使用默认并发度
func NewEngine(store Store, publisher Publisher, cache Cache, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = constants.FANOUT_CONCURRENCY
	}
	return &Engine{
		store:       store,
		publisher:   publisher,
		counter:     &unreadCounter{store: store, cache: cache},
		concurrency: concurrency,
		newID:       snowflake.GenerateIDString,
		now:         time.Now,
	}
}

// Notify 计算接收者并逐个投递，返回本次新建的通知（按接收者排序）
// 输入错误在任何副作用之前返回；单个接收者失败不影响其他接收者，
// 所有失败通过 errors.Join 合并后与已投递结果一起返回
func (e *Engine) Notify(ctx context.Context, ev Event) ([]model.Notification, error) {
	r, err := ev.validate()
	if err != nil {
		return nil, err
	}
	targets := recipients(ev, r)
	if len(targets) == 0 {
		return nil, nil
	}

	var (
		mu        sync.Mutex
		delivered []model.Notification
		errs      []error
	)
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			n, err := e.deliver(ctx, r, t)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Error("通知接收者失败",
					zap.String("user", t.user),
					zap.String("type", string(t.kind)),
					zap.String("message", r.message),
					zap.Error(err))
				errs = append(errs, errorx.Wrapf(err, errorx.GetCode(err), "通知用户 %s", t.user))
				return nil
			}
			if n != nil {
				delivered = append(delivered, *n)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(delivered, func(i, j int) bool { return delivered[i].User < delivered[j].User })
	return delivered, errors.Join(errs...)
}

// deliver 单个接收者：去重检查、落库、重新计数、推送
// 已存在未读通知时返回 nil, nil
func (e *Engine) deliver(ctx context.Context, r resolved, t target) (*model.Notification, error) {
	if identity.Equal(t.user, r.actor) {
		return nil, nil
	}
	key := model.UnreadKey(t.user, t.kind.Bucket(), r.message)

	existing, err := e.store.FindUnread(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	n := &model.Notification{
		Uuid:         e.newID(),
		User:         t.user,
		Type:         t.kind,
		Workspace:    r.workspace,
		Channel:      r.channel,
		Message:      r.message,
		ThreadParent: r.threadParent,
		FromUser:     r.actor,
		CreatedAt:    e.now(),
		UnreadKey:    &key,
	}
	if err := e.store.Create(ctx, n); err != nil {
		if errorx.IsDuplicate(err) {
			// 并发写入方已经通知过该用户
			zap.L().Debug("通知已存在", zap.String("key", key))
			return nil, nil
		}
		return nil, err
	}

	userRoom := room.UserRoom(t.user)
	if err := e.publisher.Broadcast(ctx, userRoom, dispatch.EventNotification, n); err != nil {
		zap.L().Warn("推送通知失败", zap.String("user", t.user), zap.Error(err))
	}
	e.pushCount(ctx, t.user)
	return n, nil
}

// pushCount 重新计数并推送 notification_count_updated
func (e *Engine) pushCount(ctx context.Context, user string) {
	count, err := e.counter.Refresh(ctx, user)
	if err != nil {
		zap.L().Warn("统计未读数失败", zap.String("user", user), zap.Error(err))
		return
	}
	err = e.publisher.Broadcast(ctx, room.UserRoom(user), dispatch.EventNotificationCountUpdated, CountPayload{Count: count})
	if err != nil {
		zap.L().Warn("推送未读数失败", zap.String("user", user), zap.Error(err))
	}
}
