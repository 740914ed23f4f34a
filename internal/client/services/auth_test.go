package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/folders"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/groups"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

var testSalt = []byte("0123456789abcdef")

// newSession seals a fresh keyring the way the server hands it out.
func newSession(t *testing.T, password string) (*models.Session, *cryptox.Keyring) {
	t.Helper()
	userID := uuid.New()
	kr, err := cryptox.GenerateKeyring(userID)
	require.NoError(t, err)

	mk := cryptox.DeriveMasterKey([]byte(password), testSalt)
	ct, nonce, err := kr.Seal(mk)
	require.NoError(t, err)

	return &models.Session{
		UserID:       userID,
		AccessToken:  "access",
		RefreshToken: "refresh",
		Keyring:      ct,
		KeyringNonce: nonce,
	}, kr
}

func newAuth(t *testing.T, fc *fakeClient) (AuthService, *dbx.Executor) {
	t.Helper()
	exec := setupExec(t)
	return NewAuthService(fc, exec, logging.NewNop()), exec
}

func TestOnlineLogin_SavesOfflineData(t *testing.T) {
	ctx := context.Background()
	session, want := newSession(t, testPassword)
	fc := &fakeClient{GetSaltRet: testSalt, Session: session}
	auth, exec := newAuth(t, fc)

	kr, err := auth.OnlineLogin(ctx, "ada", []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, want.UserID, kr.UserID)
	assert.Equal(t, want.BoxPublic, kr.BoxPublic)
	assert.Equal(t, want.SignPrivate, kr.SignPrivate)

	assert.Equal(t, "ada", fc.LastGetSaltUser)
	assert.Equal(t, "ada", fc.LastLoginUser)
	mk := cryptox.DeriveMasterKey([]byte(testPassword), testSalt)
	assert.Equal(t, cryptox.MakeVerifier(mk), fc.LastLoginKey)

	saved, err := metadata.NewSQLiteRepository(exec.DB()).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("ada"), saved[metadata.KeyUsername])
	assert.Equal(t, testSalt, saved[metadata.KeySalt])
	assert.Equal(t, fc.LastLoginKey, saved[metadata.KeyVerifier])
	assert.Equal(t, []byte(session.UserID.String()), saved[metadata.KeyUserID])
	assert.Equal(t, session.Keyring, saved[metadata.KeyKeyring])
	assert.Equal(t, session.KeyringNonce, saved[metadata.KeyKeyringNonce])

	// the cached data now unlocks offline
	offline, err := auth.OfflineLogin(ctx, "ada", []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, want.BoxPrivate, offline.BoxPrivate)
}

func TestOnlineLogin_Errors(t *testing.T) {
	session, _ := newSession(t, testPassword)
	otherSession, _ := newSession(t, "another password")
	mismatched := *session
	mismatched.UserID = uuid.New()
	saltErr := errors.New("no such user")

	tests := []struct {
		name    string
		fc      *fakeClient
		wantErr error
		prefix  string
	}{
		{"salt", &fakeClient{GetSaltErr: saltErr}, saltErr, "get salt error"},
		{"login", &fakeClient{GetSaltRet: testSalt, LoginErr: client.ErrUnauthorized}, client.ErrUnauthorized, "login error"},
		{"keyring sealed with another key", &fakeClient{GetSaltRet: testSalt, Session: otherSession}, nil, "open keyring"},
		{"keyring of another user", &fakeClient{GetSaltRet: testSalt, Session: &mismatched}, cryptox.ErrMalformed, "open keyring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, exec := newAuth(t, tt.fc)
			_, err := auth.OnlineLogin(context.Background(), "ada", []byte(testPassword))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.prefix)

			saved, err := metadata.NewSQLiteRepository(exec.DB()).List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, saved, "nothing is cached on failure")
		})
	}
}

func TestOfflineLogin(t *testing.T) {
	ctx := context.Background()
	session, _ := newSession(t, testPassword)
	fc := &fakeClient{GetSaltRet: testSalt, Session: session}

	auth, _ := newAuth(t, fc)
	_, err := auth.OfflineLogin(ctx, "ada", []byte(testPassword))
	require.ErrorIs(t, err, client.ErrLocalDataNotAvailable)

	_, err = auth.OnlineLogin(ctx, "ada", []byte(testPassword))
	require.NoError(t, err)

	_, err = auth.OfflineLogin(ctx, "ada", []byte("wrong"))
	require.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = auth.OfflineLogin(ctx, "grace", []byte(testPassword))
	require.ErrorIs(t, err, client.ErrUnauthorized)

	kr, err := auth.OfflineLogin(ctx, "ada", []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, session.UserID, kr.UserID)
}

type cancelCounter struct{ n int }

func (c *cancelCounter) Cancel() { c.n++ }

func TestLogout_WipesEverything(t *testing.T) {
	ctx := context.Background()
	session, _ := newSession(t, testPassword)
	fc := &fakeClient{GetSaltRet: testSalt, Session: session}
	auth, exec := newAuth(t, fc)
	canceller := &cancelCounter{}
	auth.SetSyncCanceller(canceller)

	_, err := auth.OnlineLogin(ctx, "ada", []byte(testPassword))
	require.NoError(t, err)

	rec := record(1, typeDefault.ID)
	seed(t, exec, rec)
	member := uuid.New()
	err = exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := folders.NewSQLiteRepository(tx).ReplaceAll(ctx, []models.Folder{folder("Ops", nil)}); err != nil {
			return err
		}
		if err := users.NewSQLiteRepository(tx).ReplaceAll(ctx, []models.User{{ID: member, Username: "bob", PublicKey: []byte("pk"), SigningKey: []byte("sk")}}); err != nil {
			return err
		}
		return groups.NewSQLiteRepository(tx).ReplaceAll(ctx, []models.Group{{ID: uuid.New(), Name: "ops", MemberIDs: []uuid.UUID{member}}})
	})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx))
	assert.Equal(t, 1, canceller.n)

	for _, table := range []string{"resources", "resource_tags", "tags", "folders", "users", "user_groups", "user_group_members", "metadata", "resource_types"} {
		var n int
		require.NoError(t, exec.DB().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	_, err = auth.OfflineLogin(ctx, "ada", []byte(testPassword))
	require.ErrorIs(t, err, client.ErrLocalDataNotAvailable)
}

func TestPingAndClose(t *testing.T) {
	down := errors.New("unreachable")
	auth, _ := newAuth(t, &fakeClient{PingErr: down})

	require.ErrorIs(t, auth.Ping(context.Background()), down)
	require.NoError(t, auth.Close(context.Background()))
}
