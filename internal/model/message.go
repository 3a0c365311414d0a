// Package model 定义数据库实体模型
// 本文件定义领域事件信封，REST 层产生的写操作事件经 EventBroker 投递给实时核心
package model

import (
	"encoding/json"
	"time"
)

// 领域事件类型
const (
	EventMessagePosted   = "message_posted"
	EventReactionToggled = "reaction_toggled"
	EventMessageRead     = "message_read"
	EventDMSent          = "dm_sent"
	EventMessageUpdated  = "message_updated"
	EventChannelCreated  = "channel_created"
	EventChannelUpdated  = "channel_updated"
	EventChannelRead     = "channel_read"
)

// DomainEvent 领域事件信封
// Payload 为对应请求体的 JSON，消费端按 Type 反序列化
type DomainEvent struct {
	Type string `json:"type"`
	// Key 分区键（Kafka 模式），通常为频道ID，保证同一频道事件落在同一分区
	Key         string          `json:"key,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"publishedAt"`
}

// NewDomainEvent 序列化 payload 并构造事件
func NewDomainEvent(eventType, key string, payload any) (DomainEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, err
	}
	return DomainEvent{
		Type:        eventType,
		Key:         key,
		Payload:     raw,
		PublishedAt: time.Now(),
	}, nil
}
