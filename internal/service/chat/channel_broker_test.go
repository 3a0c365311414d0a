package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Olamide1/loopline/internal/config"
	"github.com/Olamide1/loopline/internal/model"
)

type recordingHandler struct {
	mu     sync.Mutex
	seen   []string
	panics bool
}

func (h *recordingHandler) Handle(_ context.Context, ev model.DomainEvent) error {
	if h.panics && ev.Type == "boom" {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, ev.Type)
	if ev.Type == "fail" {
		return errors.New("handler failed")
	}
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func TestChannelBroker_DeliversEvents(t *testing.T) {
	h := &recordingHandler{panics: true}
	b := NewChannelBroker(h, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	for _, typ := range []string{"a", "boom", "fail", "b"} {
		require.NoError(t, b.Publish(ctx, model.DomainEvent{Type: typ}))
	}
	assert.Eventually(t, func() bool { return h.count() == 3 }, time.Second, 5*time.Millisecond)

	b.Close()
	assert.ErrorIs(t, b.Publish(ctx, model.DomainEvent{Type: "late"}), ErrBrokerClosed)
	b.Close()
}

func TestChannelBroker_PublishRespectsContext(t *testing.T) {
	b := NewChannelBroker(&recordingHandler{}, 1)
	require.NoError(t, b.Publish(context.Background(), model.DomainEvent{Type: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Publish(ctx, model.DomainEvent{Type: "b"}), context.DeadlineExceeded)
	b.Close()
}

func TestChannelBroker_StopsOnContextCancel(t *testing.T) {
	b := NewChannelBroker(&recordingHandler{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("broker did not stop")
	}
}

func TestNewChatServer_DefaultsToChannelMode(t *testing.T) {
	cs := NewChatServer(ChatServerConfig{
		Kafka:   config.KafkaConfig{MessageMode: ""},
		Handler: &recordingHandler{},
	})
	assert.Equal(t, "channel", cs.Mode())
	assert.IsType(t, &ChannelBroker{}, cs.GetBroker())
	assert.Nil(t, cs.KafkaClient)
	cs.Close()
}
