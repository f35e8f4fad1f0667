package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Flash is a one-shot message shown on the next page the user visits.
type Flash struct {
	Type string `bson:"type" json:"type"` // success, error
	Text string `bson:"text" json:"text"`
}

type Session struct {
	ID              string              `bson:"_id"`
	UserID          *primitive.ObjectID `bson:"userId,omitempty"`
	FederatedUserID *primitive.ObjectID `bson:"federatedUserId,omitempty"`
	PendingEmail    string              `bson:"pendingEmail,omitempty"`
	LoginError      string              `bson:"loginError,omitempty"`
	SignupError     string              `bson:"signupError,omitempty"`
	Message         *Flash              `bson:"message,omitempty"`
	ExpiresAt       time.Time           `bson:"expiresAt"`
}
