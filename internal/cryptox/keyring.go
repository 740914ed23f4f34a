package cryptox

import (
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"
)

// SharedKey is an organization metadata key pair.
type SharedKey struct {
	Public  [32]byte
	Private [32]byte
}

// Keyring is the private key material of the signed-in user: an X25519
// pair for sealed boxes, an Ed25519 pair for signatures, and the shared
// metadata keys the user has been given.
type Keyring struct {
	UserID      uuid.UUID
	BoxPublic   [32]byte
	BoxPrivate  [32]byte
	SignPublic  [32]byte
	SignPrivate [64]byte
	shared      map[uuid.UUID]SharedKey
}

// keyringJSON is the at-rest form sealed with the master key.
type keyringJSON struct {
	UserID      uuid.UUID            `json:"user_id"`
	BoxPublic   []byte               `json:"box_public"`
	BoxPrivate  []byte               `json:"box_private"`
	SignPublic  []byte               `json:"sign_public"`
	SignPrivate []byte               `json:"sign_private"`
	Shared      map[uuid.UUID][]byte `json:"shared"`
}

func GenerateKeyring(userID uuid.UUID) (*Keyring, error) {
	boxPub, boxPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("box key generation failed: %w", err)
	}
	signPub, signPriv, err := sign.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("sign key generation failed: %w", err)
	}
	return &Keyring{
		UserID:      userID,
		BoxPublic:   *boxPub,
		BoxPrivate:  *boxPriv,
		SignPublic:  *signPub,
		SignPrivate: *signPriv,
		shared:      map[uuid.UUID]SharedKey{},
	}, nil
}

// AddSharedKey registers a shared metadata key pair under id.
func (k *Keyring) AddSharedKey(id uuid.UUID, key SharedKey) {
	if k.shared == nil {
		k.shared = map[uuid.UUID]SharedKey{}
	}
	k.shared[id] = key
}

// GenerateSharedKey creates a new shared key pair, stores it under id and
// returns it.
func (k *Keyring) GenerateSharedKey(id uuid.UUID) (SharedKey, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return SharedKey{}, err
	}
	key := SharedKey{Public: *pub, Private: *priv}
	k.AddSharedKey(id, key)
	return key, nil
}

func (k *Keyring) SharedKey(id uuid.UUID) (SharedKey, bool) {
	key, ok := k.shared[id]
	return key, ok
}

// Seal encrypts the keyring with the master key for local storage.
func (k *Keyring) Seal(masterKey []byte) (ciphertext, nonce []byte, err error) {
	kj := keyringJSON{
		UserID:      k.UserID,
		BoxPublic:   k.BoxPublic[:],
		BoxPrivate:  k.BoxPrivate[:],
		SignPublic:  k.SignPublic[:],
		SignPrivate: k.SignPrivate[:],
		Shared:      make(map[uuid.UUID][]byte, len(k.shared)),
	}
	for id, key := range k.shared {
		kj.Shared[id] = append(append([]byte{}, key.Public[:]...), key.Private[:]...)
	}
	return SealJSON(kj, masterKey)
}

// OpenKeyring decrypts a keyring produced by Seal.
func OpenKeyring(ciphertext, nonce, masterKey []byte) (*Keyring, error) {
	var kj keyringJSON
	if err := OpenJSON(ciphertext, nonce, masterKey, &kj); err != nil {
		return nil, err
	}
	defer func() {
		common.WipeByteArray(kj.BoxPrivate)
		common.WipeByteArray(kj.SignPrivate)
	}()

	if len(kj.BoxPublic) != 32 || len(kj.BoxPrivate) != 32 || len(kj.SignPublic) != 32 || len(kj.SignPrivate) != 64 {
		return nil, ErrMalformed
	}

	k := &Keyring{UserID: kj.UserID, shared: make(map[uuid.UUID]SharedKey, len(kj.Shared))}
	copy(k.BoxPublic[:], kj.BoxPublic)
	copy(k.BoxPrivate[:], kj.BoxPrivate)
	copy(k.SignPublic[:], kj.SignPublic)
	copy(k.SignPrivate[:], kj.SignPrivate)
	for id, raw := range kj.Shared {
		if len(raw) != 64 {
			return nil, ErrMalformed
		}
		var key SharedKey
		copy(key.Public[:], raw[:32])
		copy(key.Private[:], raw[32:])
		k.shared[id] = key
		common.WipeByteArray(raw)
	}
	return k, nil
}

// Wipe zeroes all private material.
func (k *Keyring) Wipe() {
	common.WipeByteArray(k.BoxPrivate[:])
	common.WipeByteArray(k.SignPrivate[:])
	clear(k.shared)
}
