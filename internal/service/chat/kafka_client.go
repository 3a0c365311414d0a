// Package chat 领域事件代理
// kafka_client.go
// 核心职责：Kafka 基础设施管理
// 1. 封装 Kafka 底层连接 (Writer/Reader)
// 2. 负责 Kafka 资源的初始化和关闭
// 3. 纯技术组件，不包含业务逻辑
package chat

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/config"
)

// KafkaClient Kafka 客户端结构
type KafkaClient struct {
	Producer *kafka.Writer // 生产者：负责写入事件
	Consumer *kafka.Reader // 消费者：负责读取事件
}

// NewKafkaClient 按配置创建 Kafka 客户端
func NewKafkaClient(cfg config.KafkaConfig) *KafkaClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = time.Second
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "loopline"
	}
	return &KafkaClient{
		Producer: &kafka.Writer{
			Addr:  kafka.TCP(cfg.HostPort),
			Topic: cfg.EventTopic,
			// 同一 key 落到同一分区
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		},
		Consumer: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{cfg.HostPort},
			Topic:          cfg.EventTopic,
			CommitInterval: timeout,
			GroupID:        groupID,
			StartOffset:    kafka.LastOffset,
		}),
	}
}

// Close 关闭生产者和消费者
func (k *KafkaClient) Close() {
	if err := k.Producer.Close(); err != nil {
		zap.L().Error("close kafka writer", zap.Error(err))
	}
	if err := k.Consumer.Close(); err != nil {
		zap.L().Error("close kafka reader", zap.Error(err))
	}
}

// SendMessage 写入一条消息
func (k *KafkaClient) SendMessage(ctx context.Context, key, value []byte) error {
	return k.Producer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}
