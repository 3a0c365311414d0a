package notification

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/pkg/constants"
)

// Cache 未读数缓存，由 redis.RedisCache 实现
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	SubmitTask(action func())
}

// unreadCounter 旁路缓存的未读计数，缓存不可用时直接查库
type unreadCounter struct {
	store Store
	cache Cache
}

func unreadCacheKey(user string) string {
	return constants.UNREAD_CACHE_PREFIX + user
}

// Count 先读缓存，未命中查库并异步回填
// 回填只在键不存在时写入，不会覆盖 Refresh 写入的新值
func (c *unreadCounter) Count(ctx context.Context, user string) (int64, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, unreadCacheKey(user))
		if err != nil {
			zap.L().Warn("读取未读数缓存失败", zap.String("user", user), zap.Error(err))
		} else if cached != "" {
			if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return n, nil
			}
		}
	}
	n, err := c.store.CountUnread(ctx, user)
	if err != nil {
		return 0, err
	}
	c.warm(user, n)
	return n, nil
}

// Refresh 未读状态变化后调用：以库为准重新计数并同步写回缓存
// 写回失败时删除缓存键，保证下次读取回源
func (c *unreadCounter) Refresh(ctx context.Context, user string) (int64, error) {
	n, err := c.store.CountUnread(ctx, user)
	if err != nil {
		if c.cache != nil {
			_ = c.cache.Delete(ctx, unreadCacheKey(user))
		}
		return 0, err
	}
	if c.cache != nil {
		ttl := time.Duration(constants.REDIS_TIMEOUT) * time.Minute
		if err := c.cache.Set(ctx, unreadCacheKey(user), strconv.FormatInt(n, 10), ttl); err != nil {
			zap.L().Warn("写回未读数缓存失败", zap.String("user", user), zap.Error(err))
			_ = c.cache.Delete(ctx, unreadCacheKey(user))
		}
	}
	return n, nil
}

func (c *unreadCounter) warm(user string, n int64) {
	if c.cache == nil {
		return
	}
	c.cache.SubmitTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		ttl := time.Duration(constants.REDIS_TIMEOUT) * time.Minute
		if _, err := c.cache.SetNX(ctx, unreadCacheKey(user), strconv.FormatInt(n, 10), ttl); err != nil {
			zap.L().Warn("回填未读数缓存失败", zap.String("user", user), zap.Error(err))
		}
	})
}
