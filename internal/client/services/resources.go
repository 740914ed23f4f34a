package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resources"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resourcetypes"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/google/uuid"
)

// SecretDecrypter opens a signed secret frame.
type SecretDecrypter interface {
	DecryptSecret(ctx context.Context, frame []byte) ([]byte, error)
}

// ResourceService is the read side over synced resources.
type ResourceService interface {
	List(ctx context.Context) ([]models.ResourceOverview, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Resource, error)
	// Secret decrypts a resource secret on demand. Nothing decrypted is
	// stored.
	Secret(ctx context.Context, id uuid.UUID) (models.Secret, error)
}

type resourceService struct {
	db     dbx.DBTX
	crypto SecretDecrypter
}

func NewResourceService(db dbx.DBTX, crypto SecretDecrypter) ResourceService {
	return &resourceService{db: db, crypto: crypto}
}

func (s *resourceService) List(ctx context.Context) ([]models.ResourceOverview, error) {
	return resources.NewSQLiteRepository(s.db).GetAll(ctx)
}

func (s *resourceService) Get(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	return resources.NewSQLiteRepository(s.db).GetByID(ctx, id)
}

func (s *resourceService) Secret(ctx context.Context, id uuid.UUID) (models.Secret, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return models.Secret{}, err
	}
	rt, err := resourcetypes.NewSQLiteRepository(s.db).GetByID(ctx, res.ResourceTypeID)
	if err != nil {
		return models.Secret{}, fmt.Errorf("resource type: %w", err)
	}

	plaintext, err := s.crypto.DecryptSecret(ctx, res.Secret)
	if err != nil {
		return models.Secret{}, fmt.Errorf("decrypt secret: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	return models.ParseSecret(rt.Slug, plaintext)
}
