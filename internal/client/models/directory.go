package models

import "github.com/google/uuid"

// User is an organization member. PublicKey is the X25519 key secrets are
// sealed to when shared with this user; SigningKey verifies secrets the
// user shares.
type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	PublicKey  []byte    `json:"public_key"`
	SigningKey []byte    `json:"signing_key"`
	Active     bool      `json:"active"`
}

func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName + " <" + u.Username + ">"
	case u.FirstName != "":
		return u.FirstName + " <" + u.Username + ">"
	default:
		return u.Username
	}
}

// Group is a named set of users.
type Group struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}
