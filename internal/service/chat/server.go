// Package chat 领域事件代理
// server.go
// 核心职责：聊天服务器聚合结构和依赖注入
// 封装 EventBroker、KafkaClient 等组件，提供统一的生命周期管理
package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/config"
	"github.com/Olamide1/loopline/pkg/constants"
)

// ChatServer 聊天服务器聚合结构
type ChatServer struct {
	// Broker 事件代理，根据配置可能是 ChannelBroker 或 KafkaBroker
	Broker EventBroker

	// KafkaClient Kafka 客户端（仅 Kafka 模式使用）
	KafkaClient *KafkaClient

	// mode 运行模式: "channel" 或 "kafka"
	mode string
}

// ChatServerConfig 聊天服务器配置
type ChatServerConfig struct {
	Kafka       config.KafkaConfig
	EventBuffer int
	Handler     EventHandler
}

// NewChatServer 创建聊天服务器实例
// 根据配置选择 ChannelBroker 或 KafkaBroker
func NewChatServer(cfg ChatServerConfig) *ChatServer {
	cs := &ChatServer{mode: cfg.Kafka.MessageMode}
	if cs.mode == "kafka" {
		cs.KafkaClient = NewKafkaClient(cfg.Kafka)
		cs.Broker = NewKafkaBroker(cs.KafkaClient, cfg.Handler)
	} else {
		// Channel 模式（默认）
		size := cfg.EventBuffer
		if size <= 0 {
			size = constants.CHANNEL_SIZE
		}
		cs.mode = "channel"
		cs.Broker = NewChannelBroker(cfg.Handler, size)
	}
	zap.L().Info("chat server created", zap.String("mode", cs.mode))
	return cs
}

// Start 后台启动消费循环
func (cs *ChatServer) Start(ctx context.Context) {
	go cs.Broker.Start(ctx)
}

// Close 关闭聊天服务器
func (cs *ChatServer) Close() {
	cs.Broker.Close()
	if cs.KafkaClient != nil {
		cs.KafkaClient.Close()
	}
}

// GetBroker 获取事件代理
func (cs *ChatServer) GetBroker() EventBroker {
	return cs.Broker
}

// Mode 当前运行模式
func (cs *ChatServer) Mode() string {
	return cs.mode
}
