// Package cryptox holds the client's cryptography: master key derivation,
// AES-GCM sealing of local data, the user keyring, and the Provider that
// decrypts metadata and secrets and encrypts secrets for other users.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// SealJSON serializes v to JSON and encrypts it with AES-GCM under key.
// The key must be 16, 24 or 32 bytes. A fresh 12-byte nonce is returned
// alongside the ciphertext.
//
// Example:
//
//	ciphertext, nonce, err := SealJSON(keyring, masterKey)
//	...
//	var k keyringJSON
//	err = OpenJSON(ciphertext, nonce, masterKey, &k)
func SealJSON(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(plaintext)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// OpenJSON reverses SealJSON, unmarshalling the plaintext into v.
func OpenJSON(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return ErrDecrypt
	}
	defer common.WipeByteArray(plaintext)

	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
