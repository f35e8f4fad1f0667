package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB bundles the mongo client with the collections the application uses.
type DB struct {
	Client      *mongo.Client
	Users       *mongo.Collection
	Posts       *mongo.Collection
	Collections *mongo.Collection
	Sessions    *mongo.Collection
}

func ConnectMongo(ctx context.Context, uri, name string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// Ping MongoDB
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := New(client.Database(name))
	log.Info().Str("db", name).Msg("connected to MongoDB")
	return db, nil
}

// New wires the collections of an already connected database.
func New(db *mongo.Database) *DB {
	return &DB{
		Client:      db.Client(),
		Users:       db.Collection("users"),
		Posts:       db.Collection("posts"),
		Collections: db.Collection("collections"),
		Sessions:    db.Collection("sessions"),
	}
}

// EnsureIndexes creates the uniqueness and TTL indexes the application relies on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	userIdx := []mongo.IndexModel{
		{Keys: bson.D{{"email", 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{"username", 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{"googleId", 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}
	if _, err := d.Users.Indexes().CreateMany(ctx, userIdx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	postIdx := []mongo.IndexModel{
		{Keys: bson.D{{"createdAt", -1}}},
		{Keys: bson.D{{"uploadedBy", 1}}},
	}
	if _, err := d.Posts.Indexes().CreateMany(ctx, postIdx); err != nil {
		return fmt.Errorf("posts indexes: %w", err)
	}

	if _, err := d.Collections.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{"owner", 1}}}); err != nil {
		return fmt.Errorf("collections indexes: %w", err)
	}

	ttl := mongo.IndexModel{
		Keys:    bson.D{{"expiresAt", 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := d.Sessions.Indexes().CreateOne(ctx, ttl); err != nil {
		return fmt.Errorf("sessions indexes: %w", err)
	}
	return nil
}

func (d *DB) Disconnect(ctx context.Context) error {
	if d == nil || d.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Info().Msg("disconnected from MongoDB")
	return nil
}

// Store groups the repositories handed to services and handlers.
type Store struct {
	Users       UserRepository
	Posts       PostRepository
	Collections CollectionRepository
	Sessions    SessionRepository
}

func (d *DB) Store() *Store {
	return &Store{
		Users:       &MongoUsers{coll: d.Users},
		Posts:       &MongoPosts{coll: d.Posts, users: d.Users},
		Collections: &MongoCollections{coll: d.Collections},
		Sessions:    &MongoSessions{coll: d.Sessions},
	}
}
