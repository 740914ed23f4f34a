// Package services contains the application services of the orgkeeper
// client: authentication, the sync engine (directory, folders, resource
// ingestion), the resource read model and the share form.
//
// This file defines the authentication service: online/offline login,
// liveness probe, and logout with wiping of local data.
package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/folders"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/groups"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resources"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resourcetypes"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/google/uuid"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - OnlineLogin: authenticate against the server, unlock the keyring it
//     returns and persist what offline login needs.
//   - OfflineLogin: verify credentials against locally cached data and
//     unlock the cached keyring.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
//   - Logout: stop any running sync and wipe every local table.
//   - SetSyncCanceller: register the sync Logout has to stop.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	OfflineLogin(ctx context.Context, username string, password []byte) (*cryptox.Keyring, error)
	OnlineLogin(ctx context.Context, username string, password []byte) (*cryptox.Keyring, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Logout(ctx context.Context) error
	SetSyncCanceller(c SyncCanceller)
}

// SyncCanceller stops an in-flight sync. SyncService implements it.
type SyncCanceller interface {
	Cancel()
}

// authService is the concrete AuthService backed by a remote Client and the
// local store.
type authService struct {
	client client.Client
	exec   *dbx.Executor
	sync   SyncCanceller
	log    logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// local store.
func NewAuthService(client client.Client, exec *dbx.Executor, log logging.Logger) AuthService {
	return &authService{client: client, exec: exec, log: log.With("module", "auth")}
}

func (a *authService) SetSyncCanceller(c SyncCanceller) {
	a.sync = c
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.exec.DB())
}

// OfflineLogin derives a master key from (password,salt) stored locally
// and verifies it against the locally cached verifier, then opens the
// cached keyring. If local data is missing, returns
// client.ErrLocalDataNotAvailable; if verification fails, returns
// client.ErrUnauthorized.
func (a *authService) OfflineLogin(ctx context.Context, username string, password []byte) (*cryptox.Keyring, error) {
	saved, err := a.getMetadataRepo().List(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range []string{metadata.KeyUsername, metadata.KeySalt, metadata.KeyVerifier, metadata.KeyKeyring, metadata.KeyKeyringNonce} {
		if saved[k] == nil {
			return nil, client.ErrLocalDataNotAvailable
		}
	}
	if string(saved[metadata.KeyUsername]) != username {
		return nil, client.ErrUnauthorized
	}

	masterKeyCandidate := cryptox.DeriveMasterKey(password, saved[metadata.KeySalt])
	defer common.WipeByteArray(masterKeyCandidate)
	verifierCandidate := cryptox.MakeVerifier(masterKeyCandidate)

	if subtle.ConstantTimeCompare(saved[metadata.KeyVerifier], verifierCandidate) == 0 {
		return nil, client.ErrUnauthorized
	}

	keyring, err := cryptox.OpenKeyring(saved[metadata.KeyKeyring], saved[metadata.KeyKeyringNonce], masterKeyCandidate)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return keyring, nil
}

// OnlineLogin authenticates against the server, saves offline metadata
// (username, salt, verifier, user id, sealed keyring), and returns the
// unlocked keyring.
func (a *authService) OnlineLogin(ctx context.Context, userName string, password []byte) (*cryptox.Keyring, error) {
	salt, err := a.client.GetSalt(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("get salt error: %w", err)
	}

	masterKeyCandidate := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(masterKeyCandidate)
	verifierCandidate := cryptox.MakeVerifier(masterKeyCandidate)

	session, err := a.client.Login(ctx, userName, verifierCandidate)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	keyring, err := cryptox.OpenKeyring(session.Keyring, session.KeyringNonce, masterKeyCandidate)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	if keyring.UserID != session.UserID {
		keyring.Wipe()
		return nil, fmt.Errorf("open keyring: %w", cryptox.ErrMalformed)
	}

	if err := a.saveOfflineData(ctx, userName, salt, verifierCandidate, session.UserID, session.Keyring, session.KeyringNonce); err != nil {
		keyring.Wipe()
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}
	a.log.Info(ctx, "logged in", "user", userName)
	return keyring, nil
}

// saveOfflineData persists the auth metadata required for offline login in
// a single transaction.
func (a *authService) saveOfflineData(ctx context.Context, userName string, salt, verifier []byte, userID uuid.UUID, keyring, nonce []byte) error {
	return a.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).SetAll(ctx, map[string][]byte{
			metadata.KeyUsername:     []byte(userName),
			metadata.KeySalt:         salt,
			metadata.KeyVerifier:     verifier,
			metadata.KeyUserID:       []byte(userID.String()),
			metadata.KeyKeyring:      keyring,
			metadata.KeyKeyringNonce: nonce,
		})
	})
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// Logout cancels the running sync and clears all local data, including
// the cached credentials.
func (a *authService) Logout(ctx context.Context) error {
	if a.sync != nil {
		a.sync.Cancel()
	}

	err := a.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		res := resources.NewSQLiteRepository(tx)
		if err := res.ReplaceAll(ctx, nil); err != nil {
			return err
		}
		if err := folders.NewSQLiteRepository(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := resourcetypes.NewSQLiteRepository(tx).ReplaceAll(ctx, nil); err != nil {
			return err
		}
		if err := groups.NewSQLiteRepository(tx).ReplaceAll(ctx, nil); err != nil {
			return err
		}
		if err := users.NewSQLiteRepository(tx).ReplaceAll(ctx, nil); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("clear local data: %w", err)
	}
	a.log.Info(ctx, "logged out")
	return nil
}
