package cryptox

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeys struct {
	public  map[uuid.UUID][]byte
	signing map[uuid.UUID][]byte
}

var errNoKey = errors.New("no such user")

func (f *fakeKeys) PublicKey(_ context.Context, id uuid.UUID) ([]byte, error) {
	if k, ok := f.public[id]; ok {
		return k, nil
	}
	return nil, errNoKey
}

func (f *fakeKeys) SigningKey(_ context.Context, id uuid.UUID) ([]byte, error) {
	if k, ok := f.signing[id]; ok {
		return k, nil
	}
	return nil, errNoKey
}

func newPair(t *testing.T) (*Keyring, *Keyring, *fakeKeys) {
	t.Helper()
	alice, err := GenerateKeyring(uuid.New())
	require.NoError(t, err)
	bob, err := GenerateKeyring(uuid.New())
	require.NoError(t, err)
	keys := &fakeKeys{
		public: map[uuid.UUID][]byte{
			alice.UserID: alice.BoxPublic[:],
			bob.UserID:   bob.BoxPublic[:],
		},
		signing: map[uuid.UUID][]byte{
			alice.UserID: alice.SignPublic[:],
			bob.UserID:   bob.SignPublic[:],
		},
	}
	return alice, bob, keys
}

func TestProvider_Decrypt_OwnAndShared(t *testing.T) {
	alice, _, keys := newPair(t)
	p := NewProvider(alice, keys)

	own, err := Seal([]byte("mine"), alice.BoxPublic)
	require.NoError(t, err)
	got, err := p.Decrypt(own, OwnKey())
	require.NoError(t, err)
	assert.Equal(t, "mine", string(got))

	sharedID := uuid.New()
	shared, err := alice.GenerateSharedKey(sharedID)
	require.NoError(t, err)
	env, err := Seal([]byte("org"), shared.Public)
	require.NoError(t, err)
	got, err = p.Decrypt(env, SharedKeyByID(sharedID))
	require.NoError(t, err)
	assert.Equal(t, "org", string(got))

	_, err = p.Decrypt(env, SharedKeyByID(uuid.New()))
	require.ErrorIs(t, err, ErrKeyNotFound)

	_, err = p.Decrypt(env, OwnKey())
	require.ErrorIs(t, err, ErrDecrypt)

	_, err = p.Decrypt(env, KeyStrategy{Kind: KeyKind(42)})
	require.ErrorIs(t, err, ErrUnsupportedKey)
}

func TestProvider_EncryptForUser_RecipientCanDecrypt(t *testing.T) {
	alice, bob, keys := newPair(t)
	ctx := context.Background()

	frame, err := NewProvider(alice, keys).EncryptForUser(ctx, bob.UserID, []byte("s3cr3t"))
	require.NoError(t, err)

	plain, err := NewProvider(bob, keys).DecryptSecret(ctx, frame)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", string(plain))

	_, err = NewProvider(alice, keys).DecryptSecret(ctx, frame)
	require.ErrorIs(t, err, ErrDecrypt, "only the recipient can open it")
}

func TestProvider_DecryptSecret_RejectsTampering(t *testing.T) {
	alice, bob, keys := newPair(t)
	ctx := context.Background()

	frame, err := NewProvider(alice, keys).EncryptForUser(ctx, bob.UserID, []byte("s3cr3t"))
	require.NoError(t, err)

	frame[len(frame)-1] ^= 0xff
	_, err = NewProvider(bob, keys).DecryptSecret(ctx, frame)
	require.ErrorIs(t, err, ErrBadSignature)

	_, err = NewProvider(bob, keys).DecryptSecret(ctx, []byte("short"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestProvider_EncryptForUser_UnknownUser(t *testing.T) {
	alice, _, keys := newPair(t)
	_, err := NewProvider(alice, keys).EncryptForUser(context.Background(), uuid.New(), []byte("x"))
	require.ErrorIs(t, err, errNoKey)
}

func TestProvider_SelfSignedSecret(t *testing.T) {
	alice, _, keys := newPair(t)
	p := NewProvider(alice, &fakeKeys{public: keys.public})

	frame, err := p.EncryptAndSign([]byte("note to self"), alice.BoxPublic)
	require.NoError(t, err)

	plain, err := p.DecryptSecret(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, "note to self", string(plain))
}
