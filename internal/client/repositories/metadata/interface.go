// Package metadata is a small key/value store for session and sync state:
// cached login data, the sealed keyring and the last-sync marker.
package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyUsername     = "username"
	KeySalt         = "salt"
	KeyVerifier     = "verifier"
	KeyUserID       = "user_id"
	KeyKeyring      = "keyring"
	KeyKeyringNonce = "keyring_nonce"
	KeyLastSync     = "last_sync_at"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetAll(ctx context.Context, kv map[string][]byte) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	// GetTime returns the zero time if key is absent.
	GetTime(ctx context.Context, key string) (time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}
