// Package chat 领域事件代理
// kafka_broker.go
// 核心职责：分布式模式下的事件代理
// 1. 发布：事件序列化后写入 Kafka
// 2. 消费：从 Kafka 读取事件，反序列化后与 channel 模式一样逐个交给 goroutine 处理
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// KafkaBroker Kafka 事件代理
type KafkaBroker struct {
	client  *KafkaClient
	handler EventHandler

	wg        sync.WaitGroup
	started   atomic.Bool
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewKafkaBroker 创建 Kafka 事件代理
func NewKafkaBroker(client *KafkaClient, handler EventHandler) *KafkaBroker {
	return &KafkaBroker{
		client:  client,
		handler: handler,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Publish 写入 Kafka，以事件 key 作为分区键
func (b *KafkaBroker) Publish(ctx context.Context, ev model.DomainEvent) error {
	select {
	case <-b.done:
		return ErrBrokerClosed
	default:
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeTransport, "序列化事件 %s", ev.Type)
	}
	if err := b.client.SendMessage(ctx, []byte(ev.Key), data); err != nil {
		return errorx.Wrapf(err, errorx.CodeTransport, "写入 kafka 事件 %s", ev.Type)
	}
	return nil
}

// Start 消费循环，读取失败时记录日志后重试；Close 之后调用直接返回
func (b *KafkaBroker) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		b.wg.Wait()
		close(b.stopped)
	}()
	select {
	case <-b.done:
		return
	default:
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-b.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	zap.L().Info("kafka broker started", zap.String("topic", b.client.Consumer.Config().Topic))

	handleCtx := context.WithoutCancel(ctx)
	for {
		m, err := b.client.Consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			zap.L().Error("读取 kafka 事件失败", zap.Error(err))
			continue
		}
		zap.L().Debug("kafka event",
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.ByteString("key", m.Key))

		var ev model.DomainEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			zap.L().Error("反序列化 kafka 事件失败", zap.Int64("offset", m.Offset), zap.Error(err))
		} else {
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				handleEvent(handleCtx, b.handler, ev)
			}()
		}
		if err := b.client.Consumer.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			zap.L().Warn("提交 kafka 位点失败", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

// Close 停止消费并等待处理中的事件，可在 Start 之前调用
func (b *KafkaBroker) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	if b.started.Load() {
		<-b.stopped
	}
}

var _ EventBroker = (*KafkaBroker)(nil)
