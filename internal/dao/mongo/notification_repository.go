package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Olamide1/loopline/internal/dao"
	"github.com/Olamide1/loopline/internal/model"
)

type notificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository 创建通知 Repository
func NewNotificationRepository(db *mongo.Database) dao.NotificationRepository {
	return &notificationRepository{coll: db.Collection(notificationCollection)}
}

func (r *notificationRepository) FindUnread(ctx context.Context, unreadKey string) (*model.Notification, error) {
	var n model.Notification
	err := r.coll.FindOne(ctx, bson.M{"unread_key": unreadKey}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapMongoErrorf(err, "查询未读通知 key=%s", unreadKey)
	}
	return &n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return wrapMongoErrorf(err, "创建通知 user=%s message=%s", n.User, n.Message)
	}
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, user string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"user": user, "read": false})
	if err != nil {
		return 0, wrapMongoErrorf(err, "统计未读通知 user=%s", user)
	}
	return count, nil
}

func (r *notificationRepository) List(ctx context.Context, user string, filter model.NotificationFilter) ([]model.Notification, error) {
	query := bson.M{"user": user}
	if filter.UnreadOnly {
		query["read"] = false
	}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(filter.Limit))
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, wrapMongoErrorf(err, "查询通知列表 user=%s", user)
	}
	var list []model.Notification
	if err := cur.All(ctx, &list); err != nil {
		return nil, wrapMongoErrorf(err, "解码通知列表 user=%s", user)
	}
	return list, nil
}

func (r *notificationRepository) FindByUuid(ctx context.Context, uuid string) (*model.Notification, error) {
	var n model.Notification
	if err := r.coll.FindOne(ctx, bson.M{"_id": uuid}).Decode(&n); err != nil {
		return nil, wrapMongoErrorf(err, "查询通知 uuid=%s", uuid)
	}
	return &n, nil
}

// MarkRead 置为已读并移除 unread_key，文档随即退出部分唯一索引
func (r *notificationRepository) MarkRead(ctx context.Context, uuid string, readAt time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": uuid, "read": false},
		markReadUpdate(readAt))
	if err != nil {
		return false, wrapMongoErrorf(err, "标记通知已读 uuid=%s", uuid)
	}
	return res.ModifiedCount > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, user string, readAt time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"user": user, "read": false},
		markReadUpdate(readAt))
	if err != nil {
		return 0, wrapMongoErrorf(err, "全部标记已读 user=%s", user)
	}
	return res.ModifiedCount, nil
}

func markReadUpdate(readAt time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"read": true, "readAt": readAt},
		"$unset": bson.M{"unread_key": ""},
	}
}
