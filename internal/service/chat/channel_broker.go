// Package chat 领域事件代理
// channel_broker.go
// 核心职责：单机模式下的事件代理
// 1. 用带缓冲的 channel 接收事件
// 2. 每个事件交给独立的 goroutine 处理，互不阻塞
// 3. 不依赖外部消息队列，适合小规模或开发环境
package chat

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/model"
)

// ChannelBroker 单机事件代理
type ChannelBroker struct {
	handler EventHandler
	events  chan model.DomainEvent

	wg        sync.WaitGroup
	started   atomic.Bool
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewChannelBroker 创建单机事件代理
func NewChannelBroker(handler EventHandler, size int) *ChannelBroker {
	return &ChannelBroker{
		handler: handler,
		events:  make(chan model.DomainEvent, size),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Publish 放入事件通道，通道满时阻塞到 ctx 取消
func (b *ChannelBroker) Publish(ctx context.Context, ev model.DomainEvent) error {
	select {
	case <-b.done:
		return ErrBrokerClosed
	default:
	}
	select {
	case b.events <- ev:
		return nil
	case <-b.done:
		return ErrBrokerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start 消费循环
func (b *ChannelBroker) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		b.wg.Wait()
		close(b.stopped)
	}()
	zap.L().Info("channel broker started", zap.Int("buffer", cap(b.events)))

	handleCtx := context.WithoutCancel(ctx)
	for {
		select {
		case ev := <-b.events:
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				handleEvent(handleCtx, b.handler, ev)
			}()
		case <-ctx.Done():
			return
		case <-b.done:
			return
		}
	}
}

// Close 停止消费并等待处理中的事件
func (b *ChannelBroker) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	if b.started.Load() {
		<-b.stopped
	}
}

// handleEvent 单个事件的处理，panic 不影响消费循环
func handleEvent(ctx context.Context, handler EventHandler, ev model.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("event handler panic", zap.String("type", ev.Type), zap.Any("recover", r))
		}
	}()
	if err := handler.Handle(ctx, ev); err != nil {
		zap.L().Warn("处理事件失败", zap.String("type", ev.Type), zap.String("key", ev.Key), zap.Error(err))
	}
}

var _ EventBroker = (*ChannelBroker)(nil)
