package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Collection struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Owner     primitive.ObjectID   `bson:"owner" json:"owner"`
	Posts     []primitive.ObjectID `bson:"posts" json:"posts"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}
