package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/folders"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/google/uuid"
)

// ReorderFolders returns folders in an order where every parent precedes
// its children. It scans the remaining folders repeatedly, placing each one
// whose parent is nil or already placed, until a scan places nothing.
// Folders left over point at a missing parent or sit on a cycle; they are
// returned as excluded, in input order.
func ReorderFolders(in []models.Folder) (ordered, excluded []models.Folder) {
	placed := make(map[uuid.UUID]struct{}, len(in))
	remaining := append([]models.Folder(nil), in...)
	ordered = make([]models.Folder, 0, len(in))

	for len(remaining) > 0 {
		next := remaining[:0:0]
		for _, f := range remaining {
			if f.ParentID == nil {
				ordered = append(ordered, f)
				placed[f.ID] = struct{}{}
				continue
			}
			if _, ok := placed[*f.ParentID]; ok {
				ordered = append(ordered, f)
				placed[f.ID] = struct{}{}
				continue
			}
			next = append(next, f)
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}

	if len(ordered) < len(in) {
		excluded = remaining
	}
	return ordered, excluded
}

// FolderRefreshResult summarizes one folder refresh.
type FolderRefreshResult struct {
	Stored   int
	Excluded int
}

// FolderService keeps the local folder table in line with the server.
//
// Contract:
//   - Refresh: fetch, reorder and replace all folders. Dangling or cyclic
//     folders are logged and left out; they do not fail the refresh.
//   - ReplaceAll: delete and insert in one transaction.
//   - Tree: build the folder tree from the local table.
type FolderService interface {
	Refresh(ctx context.Context) (FolderRefreshResult, error)
	ReplaceAll(ctx context.Context, ordered []models.Folder) error
	Tree(ctx context.Context) (*models.FolderTree, error)
}

type folderService struct {
	client client.Client
	exec   *dbx.Executor
	log    logging.Logger
}

func NewFolderService(client client.Client, exec *dbx.Executor, log logging.Logger) FolderService {
	return &folderService{client: client, exec: exec, log: log.With("module", "folders")}
}

func (s *folderService) Refresh(ctx context.Context) (FolderRefreshResult, error) {
	fetched, err := s.client.FetchFolders(ctx)
	if err != nil {
		return FolderRefreshResult{}, fmt.Errorf("fetch folders: %w", err)
	}

	ordered, excluded := ReorderFolders(fetched)
	for _, f := range excluded {
		s.log.Warn(ctx, "folder excluded", "id", f.ID, "parent", f.ParentID, "reason", common.ErrDanglingFolder)
	}

	if err := s.ReplaceAll(ctx, ordered); err != nil {
		return FolderRefreshResult{}, err
	}
	return FolderRefreshResult{Stored: len(ordered), Excluded: len(excluded)}, nil
}

func (s *folderService) ReplaceAll(ctx context.Context, ordered []models.Folder) error {
	return s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return folders.NewSQLiteRepository(tx).ReplaceAll(ctx, ordered)
	})
}

func (s *folderService) Tree(ctx context.Context) (*models.FolderTree, error) {
	all, err := folders.NewSQLiteRepository(s.exec.DB()).GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.BuildFolderTree(all), nil
}
