package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	myredis "github.com/Olamide1/loopline/internal/dao/redis"
)

func newRedisCache(t *testing.T) (*miniredis.Miniredis, *myredis.RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cache := myredis.NewRedisCache(client, 1, 10)
	t.Cleanup(func() {
		cache.Close()
		_ = client.Close()
	})
	return mr, cache
}

func TestUnreadCount_CacheAside(t *testing.T) {
	mr, cache := newRedisCache(t)
	e := newTestEngine(newMemStore(), &recordingPublisher{}, cache)
	ctx := context.Background()

	// Refresh 在通知落库后同步写回缓存
	_, err := e.Notify(ctx, reaction())
	require.NoError(t, err)
	got, err := mr.Get(unreadCacheKey("y"))
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.True(t, mr.TTL(unreadCacheKey("y")) > 0)

	// 命中缓存时不回源
	mr.Set(unreadCacheKey("y"), "42")
	count, err := e.UnreadCount(ctx, "y")
	require.NoError(t, err)
	assert.EqualValues(t, 42, count)
}

func TestUnreadCount_WarmsOnMiss(t *testing.T) {
	mr, cache := newRedisCache(t)
	store := newMemStore()
	e := newTestEngine(store, &recordingPublisher{}, nil)
	_, err := e.Notify(context.Background(), reaction())
	require.NoError(t, err)

	cached := newTestEngine(store, &recordingPublisher{}, cache)
	count, err := cached.UnreadCount(context.Background(), "y")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	assert.Eventually(t, func() bool {
		v, err := mr.Get(unreadCacheKey("y"))
		return err == nil && v == "1"
	}, time.Second, 10*time.Millisecond)
}

func TestUnreadCount_CacheDownFallsBackToStore(t *testing.T) {
	mr, cache := newRedisCache(t)
	store := newMemStore()
	e := newTestEngine(store, &recordingPublisher{}, cache)
	mr.Close()

	_, err := e.Notify(context.Background(), reaction())
	require.NoError(t, err)
	count, err := e.UnreadCount(context.Background(), "y")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// deferredCache 推迟执行异步任务，用于控制回填与刷新的先后顺序
type deferredCache struct {
	*myredis.RedisCache
	mu    sync.Mutex
	tasks []func()
}

func (d *deferredCache) SubmitTask(action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, action)
}

func (d *deferredCache) flush() {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

func TestUnreadCount_LateWarmKeepsRefreshedValue(t *testing.T) {
	mr, redisCache := newRedisCache(t)
	cache := &deferredCache{RedisCache: redisCache}
	store := newMemStore()
	e := newTestEngine(store, &recordingPublisher{}, cache)
	ctx := context.Background()

	// 未命中：读到 0，回填任务排队未执行
	count, err := e.UnreadCount(ctx, "y")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
	require.Len(t, cache.tasks, 1)

	_, err = e.Notify(ctx, reaction())
	require.NoError(t, err)
	got, err := mr.Get(unreadCacheKey("y"))
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	cache.flush()
	count, err = e.UnreadCount(ctx, "y")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
