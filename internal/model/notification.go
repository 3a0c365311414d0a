// Package model 定义数据库实体模型
// 本文件定义通知模型，同时用于 MySQL (gorm) 与 MongoDB (bson) 两种存储
package model

import (
	"time"
)

// NotificationKind 通知类型
type NotificationKind string

const (
	KindThreadReply    NotificationKind = "thread_reply"
	KindMention        NotificationKind = "mention"
	KindReaction       NotificationKind = "reaction"
	KindDM             NotificationKind = "dm"
	KindChannelMessage NotificationKind = "channel_message"
)

// BucketActivity mention 与 channel_message 共用的去重桶
const BucketActivity = "activity"

// Valid 是否为已知类型
func (k NotificationKind) Valid() bool {
	switch k {
	case KindThreadReply, KindMention, KindReaction, KindDM, KindChannelMessage:
		return true
	}
	return false
}

// Bucket 去重桶：mention 和 channel_message 视为同一桶，其余类型各自成桶
func (k NotificationKind) Bucket() string {
	if k == KindMention || k == KindChannelMessage {
		return BucketActivity
	}
	return string(k)
}

// UnreadKey 未读去重键 <recipient>:<bucket>:<message>
func UnreadKey(recipient, bucket, message string) string {
	return recipient + ":" + bucket + ":" + message
}

// Notification 通知模型
// 对应数据库 notification 表 / MongoDB notifications 集合
// 同一 (接收者, 去重桶, 消息) 最多存在一条未读通知
type Notification struct {
	// ID 自增主键，仅 MySQL 使用
	ID uint `gorm:"primarykey" json:"-" bson:"-"`

	// Uuid 通知雪花ID，对外暴露为 _id
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:通知雪花ID" json:"_id" bson:"_id"`

	// User 接收者，规范化后的用户ID
	User string `gorm:"column:user_id;index:idx_user_read_created,priority:1;type:varchar(64);not null;comment:接收者" json:"user" bson:"user"`

	Type NotificationKind `gorm:"column:type;type:varchar(20);not null;comment:通知类型" json:"type" bson:"type"`

	Workspace string `gorm:"column:workspace_id;index;type:varchar(64);comment:工作区" json:"workspace,omitempty" bson:"workspace,omitempty"`

	Channel string `gorm:"column:channel_id;type:varchar(64);comment:频道" json:"channel,omitempty" bson:"channel,omitempty"`

	Message string `gorm:"column:message_id;index;type:varchar(64);not null;comment:来源消息" json:"message" bson:"message"`

	ThreadParent string `gorm:"column:thread_parent_id;type:varchar(64);comment:线程根消息" json:"threadParent,omitempty" bson:"threadParent,omitempty"`

	// FromUser 触发者，规范化后的用户ID
	FromUser string `gorm:"column:from_user_id;type:varchar(64);not null;comment:触发者" json:"fromUser" bson:"fromUser"`

	Read bool `gorm:"column:read;index:idx_user_read_created,priority:2;not null;default:false;comment:是否已读" json:"read" bson:"read"`

	ReadAt *time.Time `gorm:"column:read_at;comment:已读时间" json:"readAt,omitempty" bson:"readAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;index:idx_user_read_created,priority:3;comment:创建时间" json:"createdAt" bson:"createdAt"`

	// UnreadKey 未读期间为 UnreadKey(...)，已读后置空
	// 唯一索引允许多个 NULL，因此只约束未读记录
	UnreadKey *string `gorm:"column:unread_key;uniqueIndex;type:varchar(200);comment:未读去重键" json:"-" bson:"unread_key,omitempty"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notification"
}

// NotificationFilter 通知列表查询条件
type NotificationFilter struct {
	UnreadOnly bool
	Type       NotificationKind
	Limit      int
}
