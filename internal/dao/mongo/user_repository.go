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

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *mongo.Database) dao.UserRepository {
	return &userRepository{coll: db.Collection(userCollection)}
}

func (r *userRepository) FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.coll.FindOne(ctx, bson.M{"_id": uuid}).Decode(&user); err != nil {
		return nil, wrapMongoErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// UpdateStatus 单条 upsert 并取回更新前的文档
func (r *userRepository) UpdateStatus(ctx context.Context, uuid string, status model.UserStatus, lastSeen time.Time) (model.UserStatus, error) {
	update := bson.M{"$set": bson.M{
		"status":    status,
		"lastSeen":  lastSeen,
		"updatedAt": time.Now(),
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before model.UserInfo
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": uuid}, update, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.StatusOffline, nil
	}
	if err != nil {
		return "", wrapMongoErrorf(err, "更新用户状态 uuid=%s", uuid)
	}
	if before.Status == "" {
		return model.StatusOffline, nil
	}
	return before.Status, nil
}
