package notification

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// memStore 内存版 Store，按未读去重键模拟唯一索引
type memStore struct {
	mu      sync.Mutex
	rows    map[string]*model.Notification
	unread  map[string]string
	failFor map[string]error

	// createGate 非空时 Create 先等待，用于制造并发写入
	createGate chan struct{}
}

func newMemStore() *memStore {
	return &memStore{
		rows:    map[string]*model.Notification{},
		unread:  map[string]string{},
		failFor: map[string]error{},
	}
}

func (m *memStore) FindUnread(_ context.Context, key string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.unread[key]
	if !ok {
		return nil, nil
	}
	n := *m.rows[id]
	return &n, nil
}

func (m *memStore) Create(_ context.Context, n *model.Notification) error {
	if m.createGate != nil {
		<-m.createGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[n.User]; err != nil {
		return err
	}
	if n.UnreadKey != nil {
		if _, ok := m.unread[*n.UnreadKey]; ok {
			return errorx.Wrap(errors.New("duplicate key"), errorx.CodeDuplicate, "create")
		}
		m.unread[*n.UnreadKey] = n.Uuid
	}
	cp := *n
	m.rows[n.Uuid] = &cp
	return nil
}

func (m *memStore) CountUnread(_ context.Context, user string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if row.User == user && !row.Read {
			n++
		}
	}
	return n, nil
}

func (m *memStore) List(_ context.Context, user string, filter model.NotificationFilter) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, row := range m.rows {
		if row.User != user || (filter.UnreadOnly && row.Read) || (filter.Type != "" && row.Type != filter.Type) {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memStore) FindByUuid(_ context.Context, uuid string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[uuid]
	if !ok {
		return nil, errorx.ErrNotFound
	}
	n := *row
	return &n, nil
}

func (m *memStore) MarkRead(_ context.Context, uuid string, readAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[uuid]
	if !ok || row.Read {
		return false, nil
	}
	m.markLocked(row, readAt)
	return true, nil
}

func (m *memStore) MarkAllRead(_ context.Context, user string, readAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if row.User == user && !row.Read {
			m.markLocked(row, readAt)
			n++
		}
	}
	return n, nil
}

func (m *memStore) markLocked(row *model.Notification, readAt time.Time) {
	if row.UnreadKey != nil {
		delete(m.unread, *row.UnreadKey)
	}
	row.Read = true
	row.ReadAt = &readAt
	row.UnreadKey = nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type published struct {
	room, event string
	payload     any
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []published
}

func (p *recordingPublisher) Broadcast(_ context.Context, room, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, published{room, event, payload})
	return nil
}

func (p *recordingPublisher) to(room, event string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, c := range p.calls {
		if c.room == room && c.event == event {
			out = append(out, c.payload)
		}
	}
	return out
}

func (p *recordingPublisher) rooms(event string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if c.event == event {
			out = append(out, c.room)
		}
	}
	sort.Strings(out)
	return out
}

// newTestEngine 固定 ID 与时间，便于断言
func newTestEngine(store Store, pub Publisher, cache Cache) *Engine {
	e := NewEngine(store, pub, cache, 4)
	var seq atomic.Int64
	e.newID = func() string { return "n" + strconv.FormatInt(seq.Add(1), 10) }
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base.Add(time.Duration(seq.Load()) * time.Second) }
	return e
}
