// Package chat 领域事件代理
// broker.go
// 核心职责：定义事件代理接口
// 抽象领域事件的发布与消费，支持 Kafka 和 Channel 两种实现
package chat

import (
	"context"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// EventHandler 事件消费方（realtime.Core）
type EventHandler interface {
	Handle(ctx context.Context, ev model.DomainEvent) error
}

// EventBroker 定义事件代理接口
// 支持多种实现：KafkaBroker (分布式), ChannelBroker (单机)
type EventBroker interface {
	// Publish 发布事件
	Publish(ctx context.Context, ev model.DomainEvent) error
	// Start 启动消费循环，阻塞直到 ctx 取消或 Close
	Start(ctx context.Context)
	// Close 停止接收新事件并等待处理中的事件完成
	Close()
}

// ErrBrokerClosed 代理已关闭
var ErrBrokerClosed = errorx.New(errorx.CodeTransport, "事件代理已关闭")
