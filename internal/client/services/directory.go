package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/groups"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
)

// DirectoryService mirrors the organization's users and groups locally.
type DirectoryService interface {
	RefreshUsers(ctx context.Context) (int, error)
	RefreshGroups(ctx context.Context) (int, error)
	Users(ctx context.Context) ([]models.User, error)
	Groups(ctx context.Context) ([]models.Group, error)
}

type directoryService struct {
	client client.Client
	exec   *dbx.Executor
	log    logging.Logger
}

func NewDirectoryService(client client.Client, exec *dbx.Executor, log logging.Logger) DirectoryService {
	return &directoryService{client: client, exec: exec, log: log.With("module", "directory")}
}

func (s *directoryService) RefreshUsers(ctx context.Context) (int, error) {
	list, err := s.client.FetchUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch users: %w", err)
	}
	err = s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return users.NewSQLiteRepository(tx).ReplaceAll(ctx, list)
	})
	if err != nil {
		return 0, fmt.Errorf("store users: %w", err)
	}
	s.log.Debug(ctx, "users refreshed", "count", len(list))
	return len(list), nil
}

func (s *directoryService) RefreshGroups(ctx context.Context) (int, error) {
	list, err := s.client.FetchUserGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch groups: %w", err)
	}
	err = s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return groups.NewSQLiteRepository(tx).ReplaceAll(ctx, list)
	})
	if err != nil {
		return 0, fmt.Errorf("store groups: %w", err)
	}
	s.log.Debug(ctx, "groups refreshed", "count", len(list))
	return len(list), nil
}

func (s *directoryService) Users(ctx context.Context) ([]models.User, error) {
	return users.NewSQLiteRepository(s.exec.DB()).GetAll(ctx)
}

func (s *directoryService) Groups(ctx context.Context) ([]models.Group, error) {
	return groups.NewSQLiteRepository(s.exec.DB()).GetAll(ctx)
}
