package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and unlocks the keyring.
//
// Online login is tried first. If the server is unavailable the cached
// offline data is used instead and the app starts in ModeOffline. After an
// online login the first sync runs right away.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		printWarn(a.out, "already logged in as %s", a.userName)
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	var (
		kr   *cryptox.Keyring
		mode Mode
	)

	kr, err = a.authService.OnlineLogin(ctx, userName, password)
	switch {
	case err == nil:
		mode = ModeOnline
	case errors.Is(err, client.ErrUnavailable):
		printWarn(a.out, "server unavailable, trying offline login")
		kr, err = a.authService.OfflineLogin(ctx, userName, password)
		if err != nil {
			a.setMode(ModeDisabled)
			return err
		}
		mode = ModeOffline
	default:
		return err
	}

	a.userName = userName
	a.setMode(mode)
	a.startSession(kr)
	printOK(a.out, "logged in as %s (%s)", userName, mode)

	if mode == ModeOnline {
		return a.Sync(ctx)
	}
	return nil
}

// Logout stops the sync, wipes every local table and locks the keyring.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.endSession()
	printOK(a.out, "logged out, local data removed")
	return nil
}
