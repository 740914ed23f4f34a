package resources

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/google/uuid"
)

// Repository describes persistence of synced resources together with their
// permissions and tags.
type Repository interface {
	// Upsert inserts or replaces a resource, its permissions and its tags,
	// and clears its awaiting-update mark.
	Upsert(ctx context.Context, res models.Resource) error

	// ReplaceAll deletes every resource and inserts the given set. Run it
	// inside a transaction.
	ReplaceAll(ctx context.Context, res []models.Resource) error

	// MarkAwaitingUpdate flags every stored resource as not yet confirmed by
	// the current sync.
	MarkAwaitingUpdate(ctx context.Context) (int64, error)

	// DeleteAwaitingUpdate removes resources that are still flagged.
	DeleteAwaitingUpdate(ctx context.Context) (int64, error)

	// ClearAwaitingUpdate drops the flag from all resources.
	ClearAwaitingUpdate(ctx context.Context) error

	// PurgeUnusedTags removes tags no resource references.
	PurgeUnusedTags(ctx context.Context) (int64, error)

	GetAll(ctx context.Context) ([]models.ResourceOverview, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error)
	Count(ctx context.Context) (int, error)
}
