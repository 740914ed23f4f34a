package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resourcetypes"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceService_Secret(t *testing.T) {
	ctx := context.Background()
	exec := setupExec(t)
	kr := newKeyring(t)
	provider := cryptox.NewProvider(kr, users.NewSQLiteRepository(exec.DB()))

	plain := models.ResourceType{ID: uuid.New(), Slug: models.SlugPasswordString, Name: "Simple"}
	err := exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return resourcetypes.NewSQLiteRepository(tx).ReplaceAll(ctx, []models.ResourceType{typeDefault, plain})
	})
	require.NoError(t, err)

	withDesc := record(1, typeDefault.ID)
	withDesc.Secret, err = provider.EncryptAndSign([]byte(`{"password":"s3cret","description":"rotate monthly"}`), kr.BoxPublic)
	require.NoError(t, err)

	bare := record(2, plain.ID)
	bare.Secret, err = provider.EncryptAndSign([]byte("hunter2"), kr.BoxPublic)
	require.NoError(t, err)

	seed(t, exec, withDesc, bare)
	svc := NewResourceService(exec.DB(), provider)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, withDesc.Name, list[0].Name)
	assert.Equal(t, withDesc.URI, list[0].URI)

	secret, err := svc.Secret(ctx, withDesc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Secret{Password: "s3cret", Description: "rotate monthly"}, secret)

	secret, err = svc.Secret(ctx, bare.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret.Password)

	// the stored frame is untouched by decryption
	res, err := svc.Get(ctx, bare.ID)
	require.NoError(t, err)
	assert.Equal(t, bare.Secret, res.Secret)
}

func TestResourceService_Errors(t *testing.T) {
	ctx := context.Background()
	exec := setupExec(t)
	kr := newKeyring(t)
	svc := NewResourceService(exec.DB(), cryptox.NewProvider(kr, users.NewSQLiteRepository(exec.DB())))

	_, err := svc.Secret(ctx, uuid.New())
	require.ErrorIs(t, err, common.ErrorNotFound)

	// a frame signed by a user missing from the directory
	stranger := newKeyring(t)
	frame, err := cryptox.NewProvider(stranger, nil).EncryptAndSign([]byte("x"), kr.BoxPublic)
	require.NoError(t, err)

	err = exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return resourcetypes.NewSQLiteRepository(tx).ReplaceAll(ctx, []models.ResourceType{typeDefault})
	})
	require.NoError(t, err)
	rec := record(1, typeDefault.ID)
	rec.Secret = frame
	seed(t, exec, rec)

	_, err = svc.Secret(ctx, rec.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "decrypt secret")
}
