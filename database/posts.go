package database

import (
	"context"
	"fmt"

	"glammate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPosts struct {
	coll  *mongo.Collection
	users *mongo.Collection
}

func NewMongoPosts(coll, users *mongo.Collection) *MongoPosts {
	return &MongoPosts{coll: coll, users: users}
}

func (r *MongoPosts) Create(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

func (r *MongoPosts) InsertMany(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	docs := make([]interface{}, len(posts))
	for i, p := range posts {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		docs[i] = p
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return translate(err)
}

func (r *MongoPosts) ExistsUnattributed(ctx context.Context, title, uploadedByName string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"title":          title,
		"uploadedByName": uploadedByName,
		"uploadedBy":     bson.M{"$exists": false},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MongoPosts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *MongoPosts) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPosts) List(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{"createdAt", -1}}).
		SetSkip(skip).
		SetLimit(limit)
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoPosts) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *MongoPosts) ListByUploader(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{"createdAt", -1}})
	return r.find(ctx, bson.M{"uploadedBy": userID}, opts)
}

func (r *MongoPosts) toggle(ctx context.Context, field string, postID, userID primitive.ObjectID) (ToggleResult, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})

	var after bson.Raw
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": postID}, togglePipeline(field, userID), opts).Decode(&after)
	if err != nil {
		return ToggleResult{}, translate(err)
	}

	var members []primitive.ObjectID
	if val, err := after.LookupErr(field); err == nil {
		if err := val.Unmarshal(&members); err != nil {
			return ToggleResult{}, fmt.Errorf("decode %s: %w", field, err)
		}
	}
	return toggleResult(members, userID), nil
}

func (r *MongoPosts) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (ToggleResult, error) {
	return r.toggle(ctx, "likes", postID, userID)
}

// ToggleSave flips the save and mirrors it into the user's saved posts.
func (r *MongoPosts) ToggleSave(ctx context.Context, postID, userID primitive.ObjectID) (ToggleResult, error) {
	res, err := r.toggle(ctx, "saves", postID, userID)
	if err != nil {
		return res, err
	}
	if _, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, membershipUpdate("saves", postID, res.Member)); err != nil {
		return res, fmt.Errorf("mirror saves: %w", err)
	}
	return res, nil
}
