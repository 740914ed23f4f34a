// Package users caches the organization directory. It also resolves the
// keys needed to seal secrets for and verify secrets from other users.
package users

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/google/uuid"
)

type Repository interface {
	ReplaceAll(ctx context.Context, users []models.User) error
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	PublicKey(ctx context.Context, id uuid.UUID) ([]byte, error)
	SigningKey(ctx context.Context, id uuid.UUID) ([]byte, error)
}
