// Package folders stores the folder hierarchy. The parent_id column is a
// foreign key onto the same table, so folders must be inserted parents
// first.
package folders

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
)

type Repository interface {
	DeleteAll(ctx context.Context) error
	Insert(ctx context.Context, f models.Folder) error
	// ReplaceAll deletes every folder and inserts folders in the given order.
	ReplaceAll(ctx context.Context, folders []models.Folder) error
	GetAll(ctx context.Context) ([]models.Folder, error)
}
