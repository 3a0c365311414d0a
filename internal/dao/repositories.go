// Package dao 定义数据访问层接口与聚合结构
// MySQL 与 MongoDB 两种实现都返回同一个 Repositories，业务层只依赖这里的接口
package dao

import (
	"context"
	"time"

	"github.com/Olamide1/loopline/internal/model"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	// FindUnread 按未读去重键查找，不存在返回 nil, nil
	FindUnread(ctx context.Context, unreadKey string) (*model.Notification, error)
	// Create 创建通知，未读去重键冲突时返回 CodeDuplicate
	Create(ctx context.Context, n *model.Notification) error
	// CountUnread 用户未读总数
	CountUnread(ctx context.Context, user string) (int64, error)
	// List 按创建时间倒序查询
	List(ctx context.Context, user string, filter model.NotificationFilter) ([]model.Notification, error)
	// FindByUuid 不存在返回 CodeNotFound
	FindByUuid(ctx context.Context, uuid string) (*model.Notification, error)
	// MarkRead 未读置为已读并清空去重键，返回是否发生变化
	MarkRead(ctx context.Context, uuid string, readAt time.Time) (bool, error)
	// MarkAllRead 用户全部未读置为已读，返回受影响条数
	MarkAllRead(ctx context.Context, user string, readAt time.Time) (int64, error)
}

// UserRepository 用户状态数据访问接口
type UserRepository interface {
	// UpdateStatus 写入状态与最后在线时间，返回之前的状态；用户不存在时创建，之前状态视为 offline
	UpdateStatus(ctx context.Context, uuid string, status model.UserStatus, lastSeen time.Time) (model.UserStatus, error)
	// FindByUuid 不存在返回 CodeNotFound
	FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error)
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	Notification NotificationRepository
	User         UserRepository

	closer func(ctx context.Context) error
}

// NewRepositories 组装 Repositories，closer 可为 nil
func NewRepositories(notification NotificationRepository, user UserRepository, closer func(ctx context.Context) error) *Repositories {
	return &Repositories{Notification: notification, User: user, closer: closer}
}

// Close 释放底层连接
func (r *Repositories) Close(ctx context.Context) error {
	if r.closer == nil {
		return nil
	}
	return r.closer(ctx)
}
