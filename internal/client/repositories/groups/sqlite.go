package groups

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

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, groups []models.Group) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_group_members`); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_groups`); err != nil {
		return fmt.Errorf("failed to clear groups: %w", err)
	}
	for _, g := range groups {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO user_groups (id, name) VALUES (?, ?)`, g.ID, g.Name); err != nil {
			return fmt.Errorf("failed to insert group %s: %w", g.Name, err)
		}
		for _, m := range g.MemberIDs {
			_, err := r.db.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_group_members (group_id, user_id) VALUES (?, ?)`, g.ID, m)
			if err != nil {
				return fmt.Errorf("failed to insert member of %s: %w", g.Name, err)
			}
		}
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM user_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select groups: %w", err)
	}

	var result []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		result = append(result, g)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// Members are loaded after the cursor is closed; a *sql.Tx cannot run a
	// second query while one is open.
	for i := range result {
		if result[i].MemberIDs, err = r.Members(ctx, result[i].ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *SQLiteRepository) Members(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM user_group_members WHERE group_id = ? ORDER BY user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to select members: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
