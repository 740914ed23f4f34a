package resources

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/testdb"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResource(name string, tags ...string) models.Resource {
	id := uuid.New()
	owner := uuid.New()
	permID := uuid.New()
	return models.Resource{
		ID:             id,
		ResourceTypeID: uuid.New(),
		Secret:         []byte("cipher-" + name),
		Metadata: models.Metadata{
			Name:        name,
			Username:    name + "@example.com",
			URIs:        []string{"https://" + name + ".example.com"},
			Description: "about " + name,
		},
		Permissions: []models.Permission{
			{ID: &permID, Kind: models.UserToResource, SubjectID: owner, TargetID: id, Level: models.PermissionOwner},
		},
		Tags:     tags,
		Modified: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func countWhere(t *testing.T, db *sql.DB, q string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(q).Scan(&n))
	return n
}

func TestUpsert_InsertThenGetByID(t *testing.T) {
	db := testdb.Open(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	folder := uuid.New()
	expired := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	res := newResource("github", "work", "dev")
	res.FolderParentID = &folder
	res.Expired = &expired

	require.NoError(t, r.Upsert(ctx, res))

	got, err := r.GetByID(ctx, res.ID)
	require.NoError(t, err)

	want := res
	want.Tags = []string{"dev", "work"}
	assert.Empty(t, cmp.Diff(&want, got))
}

func TestUpsert_UpdatesAndReplacesLinks(t *testing.T) {
	db := testdb.Open(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	res := newResource("a", "x", "y")
	require.NoError(t, r.Upsert(ctx, res))

	res.Metadata.Name = "renamed"
	res.Tags = []string{"y"}
	res.Permissions = append(res.Permissions, models.Permission{
		Kind: models.GroupToResource, SubjectID: uuid.New(), TargetID: res.ID, Level: models.PermissionRead,
	})
	require.NoError(t, r.Upsert(ctx, res))

	got, err := r.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Metadata.Name)
	assert.Equal(t, []string{"y"}, got.Tags)
	assert.Len(t, got.Permissions, 2)

	n, err := r.PurgeUnusedTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "tag x is no longer referenced")
}

func TestGetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(testdb.Open(t))

	_, err := r.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAwaitingUpdate_DeletesOnlyUnconfirmed(t *testing.T) {
	db := testdb.Open(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	kept := newResource("kept", "shared-tag")
	gone := newResource("gone", "shared-tag", "orphan")
	require.NoError(t, r.Upsert(ctx, kept))
	require.NoError(t, r.Upsert(ctx, gone))

	marked, err := r.MarkAwaitingUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	require.NoError(t, r.Upsert(ctx, kept), "upsert confirms the resource")

	deleted, err := r.DeleteAwaitingUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	require.NoError(t, r.ClearAwaitingUpdate(ctx))

	purged, err := r.PurgeUnusedTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = r.GetByID(ctx, gone.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 0, countWhere(t, db, `SELECT COUNT(*) FROM resource_permissions WHERE resource_id NOT IN (SELECT id FROM resources)`))
	assert.Equal(t, 0, countWhere(t, db, `SELECT COUNT(*) FROM resources WHERE awaiting_update = 1`))
}

func TestReplaceAll_IsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, newResource("stale")))

	set := []models.Resource{newResource("b", "t1"), newResource("a", "t2")}
	require.NoError(t, r.ReplaceAll(ctx, set))
	first, err := r.GetAll(ctx)
	require.NoError(t, err)

	require.NoError(t, r.ReplaceAll(ctx, set))
	second, err := r.GetAll(ctx)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
	require.Len(t, second, 2)
	assert.Equal(t, "a", second[0].Name)
	assert.Equal(t, "https://a.example.com", second[0].URI)
	assert.Equal(t, 2, countWhere(t, db, `SELECT COUNT(*) FROM tags`))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsert_DBErrorWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO resources`).WillReturnError(errors.New("db down"))

	err = NewSQLiteRepository(db).Upsert(context.Background(), newResource("x"))
	require.ErrorContains(t, err, "failed to upsert resource: db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAwaitingUpdate_DBErrorWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE resources SET awaiting_update = 1`).WillReturnError(errors.New("locked"))

	_, err = NewSQLiteRepository(db).MarkAwaitingUpdate(context.Background())
	require.ErrorContains(t, err, "failed to mark resources: locked")
}
