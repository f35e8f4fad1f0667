package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Profile is the public projection of a User used in search results and
// follower lists.
type Profile struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	Name     string             `bson:"name" json:"name"`
	Avatar   string             `bson:"avatar" json:"avatar"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Name: u.Name, Avatar: u.Avatar}
}
