package database

import (
	"context"

	"glammate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCollections struct {
	coll *mongo.Collection
}

func (r *MongoCollections) Create(ctx context.Context, c *models.Collection) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Posts == nil {
		c.Posts = []primitive.ObjectID{}
	}
	_, err := r.coll.InsertOne(ctx, c)
	return translate(err)
}

func (r *MongoCollections) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Collection, error) {
	var c models.Collection
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *MongoCollections) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Collection, error) {
	opts := options.Find().SetSort(bson.D{{"createdAt", -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.Collection{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoCollections) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"owner": owner})
}

func (r *MongoCollections) AddPost(ctx context.Context, id, postID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"posts": postID}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
