// Package groups caches user groups and their membership.
package groups

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/google/uuid"
)

type Repository interface {
	ReplaceAll(ctx context.Context, groups []models.Group) error
	GetAll(ctx context.Context) ([]models.Group, error)
	// Members returns the user ids of a group, sorted.
	Members(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}
