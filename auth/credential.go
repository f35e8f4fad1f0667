package auth

import (
	"glammate/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credential is the authoritative way an account signs in: exactly one of
// LocalCredential or FederatedCredential.
type Credential interface {
	credential()
}

type LocalCredential struct {
	PasswordHash string
}

type FederatedCredential struct {
	GoogleID string
}

func (LocalCredential) credential()     {}
func (FederatedCredential) credential() {}

// CredentialOf derives the authoritative credential of u. A Google link wins
// over a password; an account with neither has no credential.
func CredentialOf(u *models.User) Credential {
	switch {
	case u.GoogleID != "":
		return FederatedCredential{GoogleID: u.GoogleID}
	case u.PasswordHash != "":
		return LocalCredential{PasswordHash: u.PasswordHash}
	}
	return nil
}

// Source says which session signal produced a Viewer.
type Source int

const (
	SourceLocal Source = iota + 1
	SourceFederated
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceFederated:
		return "federated"
	}
	return "unknown"
}

// Viewer is the resolved acting user of a request.
type Viewer struct {
	User   *models.User
	Source Source
}

func (v *Viewer) ID() primitive.ObjectID {
	return v.User.ID
}
