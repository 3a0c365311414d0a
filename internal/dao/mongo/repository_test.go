package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/pkg/errorx"
)

var readAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestNotificationRepository_FindUnread(t *testing.T) {
	mt := newMock(t)
	key := model.UnreadKey("y", model.KindReaction.Bucket(), "m1")

	mt.Run("found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + notificationCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "n1"},
			{Key: "user", Value: "y"},
			{Key: "type", Value: "reaction"},
			{Key: "message", Value: "m1"},
			{Key: "read", Value: false},
			{Key: "unread_key", Value: key},
		}))
		repo := NewNotificationRepository(mt.DB)

		n, err := repo.FindUnread(context.Background(), key)
		require.NoError(mt, err)
		require.NotNil(mt, n)
		assert.Equal(mt, "n1", n.Uuid)
		require.NotNil(mt, n.UnreadKey)
		assert.Equal(mt, key, *n.UnreadKey)

		filter := mt.GetStartedEvent().Command.Lookup("filter", "unread_key")
		assert.Equal(mt, key, filter.StringValue())
	})

	mt.Run("missing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + notificationCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewNotificationRepository(mt.DB)

		n, err := repo.FindUnread(context.Background(), key)
		require.NoError(mt, err)
		assert.Nil(mt, n)
	})
}

func TestNotificationRepository_CreateDuplicate(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate unread key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: notifications index: unread_key_1",
		}))
		repo := NewNotificationRepository(mt.DB)

		key := model.UnreadKey("y", model.BucketActivity, "m1")
		err := repo.Create(context.Background(), &model.Notification{
			Uuid: "n2", User: "y", Type: model.KindMention, Message: "m1", UnreadKey: &key,
		})
		require.Error(mt, err)
		assert.True(mt, errorx.IsDuplicate(err))
	})

	mt.Run("ok", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewNotificationRepository(mt.DB)

		require.NoError(mt, repo.Create(context.Background(), &model.Notification{
			Uuid: "n3", User: "y", Type: model.KindDM, Message: "m2",
		}))
		doc := mt.GetStartedEvent().Command.Lookup("documents", "0")
		_, err := doc.Document().LookupErr("unread_key")
		assert.Error(mt, err, "read or keyless notifications omit the key")
	})
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	mt := newMock(t)

	mt.Run("flips unread", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		repo := NewNotificationRepository(mt.DB)

		flipped, err := repo.MarkRead(context.Background(), "n1", readAt)
		require.NoError(mt, err)
		assert.True(mt, flipped)

		update := mt.GetStartedEvent().Command.Lookup("updates", "0")
		assert.False(mt, update.Document().Lookup("q", "read").Boolean())
		_, err = update.Document().LookupErr("u", "$unset", "unread_key")
		assert.NoError(mt, err, "read clears the unread key")
	})

	mt.Run("already read", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		repo := NewNotificationRepository(mt.DB)

		flipped, err := repo.MarkRead(context.Background(), "n1", readAt)
		require.NoError(mt, err)
		assert.False(mt, flipped)
	})
}

func TestNotificationRepository_MarkAllReadAndCount(t *testing.T) {
	mt := newMock(t)

	mt.Run("mark all", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 3},
			bson.E{Key: "nModified", Value: 3},
		))
		repo := NewNotificationRepository(mt.DB)

		updated, err := repo.MarkAllRead(context.Background(), "y", readAt)
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, updated)
	})

	mt.Run("count unread", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + notificationCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}))
		repo := NewNotificationRepository(mt.DB)

		count, err := repo.CountUnread(context.Background(), "y")
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, count)
	})
}

func TestUserRepository_UpdateStatus(t *testing.T) {
	mt := newMock(t)

	mt.Run("new user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		repo := NewUserRepository(mt.DB)

		prev, err := repo.UpdateStatus(context.Background(), "u1", model.StatusOnline, readAt)
		require.NoError(mt, err)
		assert.Equal(mt, model.StatusOffline, prev)
	})

	mt.Run("existing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "status", Value: "away"},
		}}))
		repo := NewUserRepository(mt.DB)

		prev, err := repo.UpdateStatus(context.Background(), "u1", model.StatusOnline, readAt)
		require.NoError(mt, err)
		assert.Equal(mt, model.StatusAway, prev)

		cmd := mt.GetStartedEvent().Command
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		assert.Equal(mt, "online", cmd.Lookup("update", "$set", "status").StringValue())
	})
}
