package client

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
)

// Client is the remote API used by the sync engine and the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (*models.Session, error)

	FetchResourceTypes(ctx context.Context) ([]models.ResourceType, error)
	FetchResources(ctx context.Context, page, limit int) (*models.Page[models.ResourceRecord], error)
	FetchFolders(ctx context.Context) ([]models.Folder, error)
	FetchUsers(ctx context.Context) ([]models.User, error)
	FetchUserGroups(ctx context.Context) ([]models.Group, error)

	// ShareResource applies a permission delta and stores the secret copies
	// for new recipients in one call.
	ShareResource(ctx context.Context, req models.ShareRequest) error
}
