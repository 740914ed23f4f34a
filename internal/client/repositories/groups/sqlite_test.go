package groups

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sorted(ids ...uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func TestReplaceAll_WithMembers(t *testing.T) {
	r := NewSQLiteRepository(testdb.Open(t))
	ctx := context.Background()

	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	devs := models.Group{ID: uuid.New(), Name: "devs", MemberIDs: sorted(u1, u2)}
	ops := models.Group{ID: uuid.New(), Name: "ops", MemberIDs: []uuid.UUID{u3}}
	empty := models.Group{ID: uuid.New(), Name: "admins"}

	require.NoError(t, r.ReplaceAll(ctx, []models.Group{ops, devs, empty}))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Group{empty, devs, ops}, all)

	members, err := r.Members(ctx, devs.ID)
	require.NoError(t, err)
	assert.Equal(t, devs.MemberIDs, members)

	require.NoError(t, r.ReplaceAll(ctx, []models.Group{ops}))
	members, err = r.Members(ctx, devs.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestReplaceAll_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM user_group_members`).WillReturnError(errors.New("nope"))

	err = NewSQLiteRepository(db).ReplaceAll(context.Background(), nil)
	require.ErrorContains(t, err, "failed to clear group members: nope")
}
