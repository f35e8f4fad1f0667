package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultAvatar = "/images/default-avatar.jpg"
	DefaultBanner = "/images/default-banner.jpg"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Username     string             `bson:"username,omitempty" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	OTP          string             `bson:"otp,omitempty" json:"-"`
	OTPExpiry    *time.Time         `bson:"otpExpiry,omitempty" json:"-"`
	GoogleID     string             `bson:"googleId,omitempty" json:"-"`

	// Profile fields
	Avatar  string `bson:"avatar" json:"avatar"`
	Banner  string `bson:"banner" json:"banner"`
	Bio     string `bson:"bio" json:"bio"`
	AboutMe string `bson:"aboutMe" json:"aboutMe"`

	Followers   []primitive.ObjectID `bson:"followers" json:"followers"`
	Following   []primitive.ObjectID `bson:"following" json:"following"`
	Collections []primitive.ObjectID `bson:"collections" json:"collections"`
	Saves       []primitive.ObjectID `bson:"saves" json:"saves"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// IsFederated reports whether the account was created or linked through Google.
func (u *User) IsFederated() bool {
	return u.GoogleID != ""
}

// NewUser returns a user with profile defaults and empty reference sets, so
// the stored document always carries every field.
func NewUser(email string) *User {
	return &User{
		ID:          primitive.NewObjectID(),
		Email:       email,
		Avatar:      DefaultAvatar,
		Banner:      DefaultBanner,
		Followers:   []primitive.ObjectID{},
		Following:   []primitive.ObjectID{},
		Collections: []primitive.ObjectID{},
		Saves:       []primitive.ObjectID{},
		CreatedAt:   time.Now(),
	}
}
