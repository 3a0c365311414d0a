// Package mongo 提供 MongoDB 存储的初始化与 Repository 实现
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/config"
	"github.com/Olamide1/loopline/internal/dao"
)

const (
	notificationCollection = "notifications"
	userCollection         = "users"
)

// Init 连接 MongoDB、建立索引并返回 Repository 实例
func Init(ctx context.Context, cfg config.MongoConfig) (*dao.Repositories, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.DatabaseName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	zap.L().Info("mongo connected", zap.String("database", cfg.DatabaseName))
	return NewRepositories(db, client.Disconnect), nil
}

// NewRepositories 用已有的数据库句柄创建 Repository 集合
func NewRepositories(db *mongo.Database, closer func(ctx context.Context) error) *dao.Repositories {
	return dao.NewRepositories(
		NewNotificationRepository(db),
		NewUserRepository(db),
		closer,
	)
}

// ensureIndexes 未读去重键使用部分唯一索引，已读文档没有该字段因而不受约束
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		notificationCollection: {
			{
				Keys: bson.D{{Key: "unread_key", Value: 1}},
				Options: options.Index().
					SetName("uniq_unread_key").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"unread_key": bson.M{"$exists": true}}),
			},
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_user_read_created"),
			},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
