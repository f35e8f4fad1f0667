package database

import (
	"context"
	"testing"

	"glammate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by email decodes user", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "glammate.users", mtest.FirstBatch, bson.D{
			{"_id", id},
			{"email", "a@x.com"},
			{"username", "alpha"},
			{"isVerified", true},
		}))

		u, err := NewMongoUsers(mt.Coll).FindByEmail(context.Background(), "a@x.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "alpha", u.Username)
		assert.True(mt, u.IsVerified)
	})

	mt.Run("missing user is ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "glammate.users", mtest.FirstBatch))

		_, err := NewMongoUsers(mt.Coll).FindByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("duplicate email is ErrDuplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := NewMongoUsers(mt.Coll).Create(context.Background(), models.NewUser("a@x.com"))
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("confirm otp returns updated user", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{"_id", id},
			{"email", "a@x.com"},
			{"isVerified", true},
		}}))

		u, err := NewMongoUsers(mt.Coll).ConfirmOTP(context.Background(), id, "123456")
		require.NoError(mt, err)
		assert.True(mt, u.IsVerified)
		assert.Empty(mt, u.OTP)
	})

	mt.Run("confirm otp with empty code never matches", func(mt *mtest.T) {
		_, err := NewMongoUsers(mt.Coll).ConfirmOTP(context.Background(), primitive.NewObjectID(), "")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("search decodes profiles", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "glammate.users", mtest.FirstBatch,
			bson.D{{"_id", primitive.NewObjectID()}, {"username", "kate"}, {"name", "Kate"}, {"avatar", "/a.jpg"}},
			bson.D{{"_id", primitive.NewObjectID()}, {"username", "katya"}, {"name", "Katya"}, {"avatar", "/b.jpg"}},
		))

		got, err := NewMongoUsers(mt.Coll).Search(context.Background(), "kat", 10)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "kate", got[0].Username)
		assert.Equal(mt, "/b.jpg", got[1].Avatar)
	})
}

func TestMongoPosts_Toggle(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("like adds member", func(mt *mtest.T) {
		postID, userID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{"_id", postID},
			{"likes", bson.A{primitive.NewObjectID(), userID}},
		}}))

		res, err := NewMongoPosts(mt.Coll, mt.DB.Collection("users")).ToggleLike(context.Background(), postID, userID)
		require.NoError(mt, err)
		assert.Equal(mt, ToggleResult{Count: 2, Member: true}, res)
	})

	mt.Run("like removes member", func(mt *mtest.T) {
		postID, userID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{"_id", postID},
			{"likes", bson.A{}},
		}}))

		res, err := NewMongoPosts(mt.Coll, mt.DB.Collection("users")).ToggleLike(context.Background(), postID, userID)
		require.NoError(mt, err)
		assert.Equal(mt, ToggleResult{Count: 0, Member: false}, res)
	})

	mt.Run("save mirrors into user", func(mt *mtest.T) {
		postID, userID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{"_id", postID},
				{"saves", bson.A{userID}},
			}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		res, err := NewMongoPosts(mt.Coll, mt.DB.Collection("users")).ToggleSave(context.Background(), postID, userID)
		require.NoError(mt, err)
		assert.Equal(mt, ToggleResult{Count: 1, Member: true}, res)
	})
}

func TestTogglePipelineShape(t *testing.T) {
	id := primitive.NewObjectID()
	p := togglePipeline("likes", id)
	require.Len(t, p, 1)
	assert.Equal(t, "$set", p[0][0].Key)

	raw, err := bson.Marshal(p[0])
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}
