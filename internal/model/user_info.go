// Package model 定义数据库实体模型
// 本文件定义用户在线状态模型，用户实体由外部系统维护，这里只持有状态字段
package model

import (
	"time"
)

// UserStatus 用户在线状态
type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusOffline UserStatus = "offline"
	StatusAway    UserStatus = "away"
)

// ParseUserStatus 解析状态字符串，非法值返回 false
func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case StatusOnline, StatusOffline, StatusAway:
		return UserStatus(s), true
	}
	return "", false
}

// UserInfo 用户状态模型
// 对应数据库 user_info 表 / MongoDB users 集合
type UserInfo struct {
	ID uint `gorm:"primarykey" json:"-" bson:"-"`

	// Uuid 规范化用户ID
	Uuid string `gorm:"column:uuid;uniqueIndex;type:varchar(64);not null;comment:用户唯一id" json:"_id" bson:"_id"`

	// Status 在线状态 online/offline/away
	Status UserStatus `gorm:"column:status;type:varchar(10);not null;default:offline;comment:在线状态" json:"status" bson:"status"`

	LastSeen time.Time `gorm:"column:last_seen;comment:最后在线时间" json:"lastSeen" bson:"lastSeen"`

	UpdatedAt time.Time `gorm:"column:updated_at" json:"-" bson:"updatedAt"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}
