package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is what a successful login returns.
type Session struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	// Keyring is the user's private key material sealed with the master key.
	Keyring      []byte `json:"keyring"`
	KeyringNonce []byte `json:"keyring_nonce"`
}

// SecretCiphertext is a resource secret sealed for one recipient.
type SecretCiphertext struct {
	UserID uuid.UUID `json:"user_id"`
	Data   []byte    `json:"data"`
}

// ShareRequest is the single write a share session sends.
type ShareRequest struct {
	ResourceID uuid.UUID          `json:"resource_id"`
	New        []Permission       `json:"new"`
	Updated    []Permission       `json:"updated"`
	Deleted    []Permission       `json:"deleted"`
	Secrets    []SecretCiphertext `json:"secrets"`
}

// SyncEvent is published once per completed refresh.
type SyncEvent struct {
	CompletedAt time.Time
}
