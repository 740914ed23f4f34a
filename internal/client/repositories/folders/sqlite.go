package folders

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM folders`); err != nil {
		return fmt.Errorf("failed to clear folders: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, f models.Folder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO folders (id, name, permission_type, shared, parent_id) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, int(f.PermissionType), f.Shared, f.ParentID)
	if err != nil {
		return fmt.Errorf("failed to insert folder %s: %w", f.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, folders []models.Folder) error {
	if err := r.DeleteAll(ctx); err != nil {
		return err
	}
	for _, f := range folders {
		if err := r.Insert(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, permission_type, shared, parent_id FROM folders ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []models.Folder
	for rows.Next() {
		var (
			f      models.Folder
			parent uuid.NullUUID
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.PermissionType, &f.Shared, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		if parent.Valid {
			f.ParentID = &parent.UUID
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
