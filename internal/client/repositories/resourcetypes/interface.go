// Package resourcetypes stores the server's resource type catalog.
package resourcetypes

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/google/uuid"
)

type Repository interface {
	// ReplaceAll swaps the stored catalog for types.
	ReplaceAll(ctx context.Context, types []models.ResourceType) error
	GetAll(ctx context.Context) ([]models.ResourceType, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ResourceType, error)
}
