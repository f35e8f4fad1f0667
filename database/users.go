package database

import (
	"context"
	"fmt"
	"regexp"

	"glammate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUsers struct {
	coll *mongo.Collection
}

func NewMongoUsers(coll *mongo.Collection) *MongoUsers {
	return &MongoUsers{coll: coll}
}

func (r *MongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, u)
	return translate(err)
}

func (r *MongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *MongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"googleId": googleID})
}

func (r *MongoUsers) ConfirmOTP(ctx context.Context, id primitive.ObjectID, code string) (*models.User, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	update := bson.M{
		"$set":   bson.M{"isVerified": true},
		"$unset": bson.M{"otp": "", "otpExpiry": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "otp": code}, update, opts).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *MongoUsers) SetUsername(ctx context.Context, id primitive.ObjectID, username string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"username": username}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	if upd.empty() {
		return nil
	}
	set := bson.M{}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.AboutMe != nil {
		set["aboutMe"] = *upd.AboutMe
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.Banner != nil {
		set["banner"] = *upd.Banner
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUsers) Search(ctx context.Context, q string, limit int64) ([]models.Profile, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"name": pattern},
	}}
	opts := options.Find().
		SetLimit(limit).
		SetProjection(bson.M{"username": 1, "name": 1, "avatar": 1})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []models.Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *MongoUsers) ToggleFollow(ctx context.Context, actor, target primitive.ObjectID) (ToggleResult, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"followers": 1})

	var after models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": target}, togglePipeline("followers", actor), opts).Decode(&after)
	if err != nil {
		return ToggleResult{}, translate(err)
	}
	res := toggleResult(after.Followers, actor)

	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": actor}, membershipUpdate("following", target, res.Member)); err != nil {
		return res, fmt.Errorf("mirror following: %w", err)
	}
	return res, nil
}

func (r *MongoUsers) AddCollection(ctx context.Context, userID, collectionID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"collections": collectionID}})
	return translate(err)
}
