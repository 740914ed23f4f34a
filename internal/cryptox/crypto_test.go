package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)
	require.True(t, bytes.Equal(key1, key2), "same inputs must give the same key")

	// argon2id, t=1, m=64MiB, p=4, 32 bytes
	expectedHex := "9290403300158e19f27e48e7087f7383b03065bf5b25ef23ebc40229616cd8b3"
	assert.Equal(t, expectedHex, hex.EncodeToString(key1))
}

// Reference vectors for argon2id with password "password" and salt
// "somesalt", as published with the Argon2 reference implementation.
func TestArgon2idKnownAnswers(t *testing.T) {
	tests := []struct {
		time, memory uint32
		threads      uint8
		want         string
	}{
		{1, 64, 1, "655ad15eac652dc59f7170a7332bf49b8469be1fdb9c28bb"},
		{2, 64, 1, "068d62b26455936aa6ebe60060b0a65870dbfa3ddf8d41f7"},
		{2, 64, 2, "350ac37222f436ccb5c0972f1ebd3bf6b958bf2071841362"},
	}
	for _, tt := range tests {
		got := argon2.IDKey([]byte("password"), []byte("somesalt"), tt.time, tt.memory, tt.threads, uint32(len(tt.want)/2))
		assert.Equal(t, tt.want, hex.EncodeToString(got), "t=%d m=%d p=%d", tt.time, tt.memory, tt.threads)
	}
}

func TestDeriveMasterKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")
	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))
	assert.False(t, bytes.Equal(key1, key2))
}

func TestMakeVerifier(t *testing.T) {
	v := MakeVerifier([]byte("k"))
	assert.Len(t, v, 32)
	assert.Equal(t, v, MakeVerifier([]byte("k")))
	assert.NotEqual(t, v, MakeVerifier([]byte("k2")))
}

func TestSealOpenJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	key := bytes.Repeat([]byte{7}, 32)

	ct, nonce, err := SealJSON(payload{Name: "x", N: 3}, key)
	require.NoError(t, err)
	require.Len(t, nonce, 12)

	var got payload
	require.NoError(t, OpenJSON(ct, nonce, key, &got))
	assert.Equal(t, payload{Name: "x", N: 3}, got)

	wrong := bytes.Repeat([]byte{8}, 32)
	require.ErrorIs(t, OpenJSON(ct, nonce, wrong, &got), ErrDecrypt)

	_, _, err = SealJSON(payload{}, []byte("short"))
	require.Error(t, err)
}
