// Package redis 提供 Redis 缓存操作的封装
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Olamide1/loopline/internal/config"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// Init 创建 Redis 客户端并检查连通性
func Init(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Db,
		// 连接池配置
		PoolSize:     50,          // 最大连接数
		MinIdleConns: cfg.Workers, // 最小空闲连接，与 Worker 数量匹配
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "redis ping")
	}
	return client, nil
}
