package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Olamide1/loopline/internal/dao"
	"github.com/Olamide1/loopline/internal/model"
)

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知 Repository
func NewNotificationRepository(db *gorm.DB) dao.NotificationRepository {
	return &notificationRepository{db: db}
}

// FindUnread 按未读去重键查找
func (r *notificationRepository) FindUnread(ctx context.Context, unreadKey string) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Where(map[string]any{"unread_key": unreadKey}).Take(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErrorf(err, "查询未读通知 key=%s", unreadKey)
	}
	return &n, nil
}

// Create 创建通知，unread_key 唯一索引冲突时返回 CodeDuplicate
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return wrapDBErrorf(err, "创建通知 user=%s message=%s", n.User, n.Message)
	}
	return nil
}

// CountUnread 统计未读
func (r *notificationRepository) CountUnread(ctx context.Context, user string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where(map[string]any{"user_id": user, "read": false}).
		Count(&count).Error
	if err != nil {
		return 0, wrapDBErrorf(err, "统计未读通知 user=%s", user)
	}
	return count, nil
}

// List 按创建时间倒序查询
func (r *notificationRepository) List(ctx context.Context, user string, filter model.NotificationFilter) ([]model.Notification, error) {
	cond := map[string]any{"user_id": user}
	if filter.UnreadOnly {
		cond["read"] = false
	}
	if filter.Type != "" {
		cond["type"] = string(filter.Type)
	}
	var list []model.Notification
	err := r.db.WithContext(ctx).Where(cond).
		Order("created_at DESC").
		Limit(filter.Limit).
		Find(&list).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询通知列表 user=%s", user)
	}
	return list, nil
}

// FindByUuid 按 UUID 查找通知
func (r *notificationRepository) FindByUuid(ctx context.Context, uuid string) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).First(&n, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询通知 uuid=%s", uuid)
	}
	return &n, nil
}

// MarkRead 未读置为已读，同时清空 unread_key 让出唯一索引
func (r *notificationRepository) MarkRead(ctx context.Context, uuid string, readAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where(map[string]any{"uuid": uuid, "read": false}).
		Updates(map[string]any{"read": true, "read_at": readAt, "unread_key": nil})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "标记通知已读 uuid=%s", uuid)
	}
	return res.RowsAffected > 0, nil
}

// MarkAllRead 用户全部未读置为已读
func (r *notificationRepository) MarkAllRead(ctx context.Context, user string, readAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where(map[string]any{"user_id": user, "read": false}).
		Updates(map[string]any{"read": true, "read_at": readAt, "unread_key": nil})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "全部标记已读 user=%s", user)
	}
	return res.RowsAffected, nil
}
