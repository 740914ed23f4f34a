package cryptox

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"
)

// KeyKind selects how a metadata envelope's key is resolved.
type KeyKind int

const (
	KeyOwn KeyKind = iota
	KeyShared
)

// KeyStrategy is a KeyKind plus, for shared keys, the key id.
type KeyStrategy struct {
	Kind  KeyKind
	KeyID uuid.UUID
}

func OwnKey() KeyStrategy { return KeyStrategy{Kind: KeyOwn} }
func SharedKeyByID(id uuid.UUID) KeyStrategy { return KeyStrategy{Kind: KeyShared, KeyID: id} }

// KeyResolver finds other users' public keys.
type KeyResolver interface {
	PublicKey(ctx context.Context, userID uuid.UUID) ([]byte, error)
	SigningKey(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

// Provider performs every decrypt/encrypt the sync and share flows need on
// behalf of the keyring owner. It is safe for concurrent use as long as the
// keyring is not modified.
//
// Secrets travel as signed frames: the 16-byte signer id followed by a
// nacl/sign message whose payload is an anonymous sealed box.
type Provider struct {
	keyring *Keyring
	keys    KeyResolver
}

func NewProvider(keyring *Keyring, keys KeyResolver) *Provider {
	return &Provider{keyring: keyring, keys: keys}
}

// Decrypt opens a sealed box with the key strategy picks.
func (p *Provider) Decrypt(data []byte, strategy KeyStrategy) ([]byte, error) {
	var pub, priv [32]byte
	switch strategy.Kind {
	case KeyOwn:
		pub, priv = p.keyring.BoxPublic, p.keyring.BoxPrivate
	case KeyShared:
		key, ok := p.keyring.SharedKey(strategy.KeyID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, strategy.KeyID)
		}
		pub, priv = key.Public, key.Private
	default:
		return nil, ErrUnsupportedKey
	}

	plaintext, ok := box.OpenAnonymous(nil, data, &pub, &priv)
	if !ok {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// DecryptSecret verifies a signed secret frame and opens it with the
// owner's key.
func (p *Provider) DecryptSecret(ctx context.Context, frame []byte) ([]byte, error) {
	if len(frame) < 16+sign.Overhead {
		return nil, ErrMalformed
	}
	signerID, err := uuid.FromBytes(frame[:16])
	if err != nil {
		return nil, ErrMalformed
	}

	signerKey, err := p.signingKey(ctx, signerID)
	if err != nil {
		return nil, err
	}

	sealed, ok := sign.Open(nil, frame[16:], signerKey)
	if !ok {
		return nil, ErrBadSignature
	}
	return p.Decrypt(sealed, OwnKey())
}

// EncryptForUser seals plaintext to userID's public key and signs it.
func (p *Provider) EncryptForUser(ctx context.Context, userID uuid.UUID, plaintext []byte) ([]byte, error) {
	raw, err := p.keys.PublicKey(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("public key of %s: %w", userID, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("public key of %s: %w", userID, ErrMalformed)
	}
	var pub [32]byte
	copy(pub[:], raw)
	return p.EncryptAndSign(plaintext, pub)
}

// EncryptAndSign seals plaintext to recipient and signs the result with
// the keyring's signing key.
func (p *Provider) EncryptAndSign(plaintext []byte, recipient [32]byte) ([]byte, error) {
	sealed, err := Seal(plaintext, recipient)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, 16+sign.Overhead+len(sealed))
	frame = append(frame, p.keyring.UserID[:]...)
	return sign.Sign(frame, sealed, &p.keyring.SignPrivate), nil
}

// Seal is an anonymous sealed box to recipient.
func Seal(plaintext []byte, recipient [32]byte) ([]byte, error) {
	return box.SealAnonymous(nil, plaintext, &recipient, rand.Reader)
}

func (p *Provider) signingKey(ctx context.Context, userID uuid.UUID) (*[32]byte, error) {
	if userID == p.keyring.UserID {
		return &p.keyring.SignPublic, nil
	}
	raw, err := p.keys.SigningKey(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("signing key of %s: %w", userID, err)
	}
	if len(raw) != 32 {
		return nil, ErrMalformed
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
