package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resources"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoggedIn(t *testing.T) {
	app := &App{}
	assert.False(t, app.isLoggedIn())

	app.session = &session{}
	assert.True(t, app.isLoggedIn())
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	app := &App{log: logging.NewTextLogger(&buf, "info")}

	app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, app.Mode())
	assert.Contains(t, buf.String(), "mode=online")

	buf.Reset()
	app.setMode(ModeOnline)
	assert.Empty(t, buf.String())

	app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, app.Mode())
	assert.Contains(t, buf.String(), "mode=offline")
}

func TestCheckOnline(t *testing.T) {
	org := newOrgFixture(t)
	app, _ := newTestApp(t, org.api, "")
	ctx := context.Background()

	app.checkOnline(ctx)
	assert.Equal(t, ModeOnline, app.Mode())

	org.api.setUnavailable(true)
	app.checkOnline(ctx)
	assert.Equal(t, ModeOffline, app.Mode())

	org.api.setUnavailable(false)
	app.checkOnline(ctx)
	assert.Equal(t, ModeOnline, app.Mode())
}

func TestLogin_OnlineSyncsThenListsAndShows(t *testing.T) {
	org := newOrgFixture(t)
	app, out := newTestApp(t, org.api, "ada\n")
	ctx := context.Background()

	require.NoError(t, app.Login(ctx))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, ModeOnline, app.Mode())
	assert.Contains(t, out.String(), "logged in as ada (online)")
	assert.Contains(t, out.String(), "synchronized, 1 resources")

	out.Reset()
	require.NoError(t, app.List(ctx))
	assert.Contains(t, out.String(), org.resource.ID.String())
	assert.Contains(t, out.String(), "db-prod")
	assert.Contains(t, out.String(), "/Infra")

	out.Reset()
	require.NoError(t, app.Show(ctx, org.resource.ID.String()))
	got := out.String()
	assert.Contains(t, got, "Password:    s3cret")
	assert.Contains(t, got, "Note:        rotate monthly")
	assert.Contains(t, got, "Folder:      /Infra")
	assert.Contains(t, got, "owner    user Ada <ada>")

	out.Reset()
	require.NoError(t, app.Folders(ctx))
	assert.Equal(t, "Infra/\n", out.String())

	out.Reset()
	require.NoError(t, app.Status(ctx))
	assert.Contains(t, out.String(), "User:      ada")
	assert.Contains(t, out.String(), "Resources: 1")
	assert.NotContains(t, out.String(), "never")
}

func TestLogin_FallsBackToOffline(t *testing.T) {
	org := newOrgFixture(t)
	app, out := newTestApp(t, org.api, "ada\nada\n")
	ctx := context.Background()

	require.NoError(t, app.Login(ctx))
	app.endSession()

	org.api.setUnavailable(true)
	require.NoError(t, app.Login(ctx))
	assert.Equal(t, ModeOffline, app.Mode())
	assert.Contains(t, out.String(), "server unavailable, trying offline login")

	// data synced before going offline is still readable
	out.Reset()
	require.NoError(t, app.Show(ctx, org.resource.ID.String()))
	assert.Contains(t, out.String(), "s3cret")
}

func TestLogin_OfflineWithoutCacheDisables(t *testing.T) {
	org := newOrgFixture(t)
	org.api.setUnavailable(true)
	app, _ := newTestApp(t, org.api, "ada\n")

	err := app.Login(context.Background())
	require.Error(t, err)
	assert.False(t, app.isLoggedIn())
	assert.Equal(t, ModeDisabled, app.Mode())
}

func TestLogout_WipesLocalData(t *testing.T) {
	org := newOrgFixture(t)
	app, _ := newTestApp(t, org.api, "ada\n")
	ctx := context.Background()

	require.ErrorIs(t, app.Logout(ctx), common.ErrNotLoggedIn)

	require.NoError(t, app.Login(ctx))
	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.isLoggedIn())

	list, err := resources.NewSQLiteRepository(app.exec.DB()).GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.ErrorIs(t, app.List(ctx), common.ErrNotLoggedIn)
}

func TestShow_BadID(t *testing.T) {
	org := newOrgFixture(t)
	app, _ := newTestApp(t, org.api, "ada\n")
	ctx := context.Background()
	require.NoError(t, app.Login(ctx))

	require.Error(t, app.Show(ctx, "nope"))
	require.ErrorIs(t, app.Show(ctx, uuid.NewString()), common.ErrorNotFound)
}

func TestShare_SubmitsDeltaWithSecretForNewUser(t *testing.T) {
	org := newOrgFixture(t)
	app, out := newTestApp(t, org.api, lines(
		"ada",
		"user bob read",
		"user nobody read",
		"review",
		"submit",
	))
	ctx := context.Background()
	require.NoError(t, app.Login(ctx))

	require.NoError(t, app.Share(ctx, org.resource.ID.String()))

	calls := org.api.shareCalls()
	require.Len(t, calls, 1)
	req := calls[0]
	assert.Equal(t, org.resource.ID, req.ResourceID)
	require.Len(t, req.New, 1)
	assert.Equal(t, models.UserSubject(org.bob.UserID), req.New[0].Subject())
	assert.Equal(t, models.PermissionRead, req.New[0].Level)
	assert.Empty(t, req.Updated)
	assert.Empty(t, req.Deleted)

	require.Len(t, req.Secrets, 1)
	assert.Equal(t, org.bob.UserID, req.Secrets[0].UserID)

	got := out.String()
	assert.Contains(t, got, "user bob: read")
	assert.Contains(t, got, `user "nobody"`)
	assert.Contains(t, got, "+ user bob: read")
	assert.Contains(t, got, "permissions updated")
}

func TestShare_OwnerRemovalIsRejectedAndCancelled(t *testing.T) {
	org := newOrgFixture(t)
	app, out := newTestApp(t, org.api, lines(
		"ada",
		"remove user ada",
		"submit",
		"cancel",
	))
	ctx := context.Background()
	require.NoError(t, app.Login(ctx))

	err := app.Share(ctx, org.resource.ID.String())
	require.ErrorIs(t, err, common.ErrCancelled)
	assert.Empty(t, org.api.shareCalls())
	assert.Contains(t, out.String(), common.ErrOwnerMissing.Error())
	assert.Contains(t, out.String(), "keep or add at least one owner")
}

func TestDirectoryIndex(t *testing.T) {
	ada := models.User{ID: uuid.New(), Username: "ada", FirstName: "Ada", LastName: "Lovelace"}
	ops := models.Group{ID: uuid.New(), Name: "Ops"}
	dir := &directoryIndex{users: []models.User{ada}, groups: []models.Group{ops}}

	s, err := dir.resolve("user", "ADA")
	require.NoError(t, err)
	assert.Equal(t, models.UserSubject(ada.ID), s)

	s, err = dir.resolve("group", ops.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.GroupSubject(ops.ID), s)

	_, err = dir.resolve("group", "ada")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = dir.resolve("team", "ops")
	require.Error(t, err)

	assert.Equal(t, "user Ada Lovelace <ada>", dir.label(models.UserSubject(ada.ID)))
	assert.Equal(t, "group Ops", dir.label(models.GroupSubject(ops.ID)))
	stranger := models.UserSubject(uuid.New())
	assert.Equal(t, stranger.String(), dir.label(stranger))
}
