package resources

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func (r *SQLiteRepository) Upsert(ctx context.Context, res models.Resource) error {
	uris, err := json.Marshal(res.Metadata.URIs)
	if err != nil {
		return fmt.Errorf("failed to encode uris: %w", err)
	}
	if res.Metadata.URIs == nil {
		uris = []byte("[]")
	}

	query := `INSERT INTO resources (id, resource_type_id, folder_parent_id, secret, name, username, uris, description, modified, expired, awaiting_update)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
			ON CONFLICT(id) DO UPDATE SET resource_type_id = excluded.resource_type_id,
				folder_parent_id = excluded.folder_parent_id,
				secret = excluded.secret,
				name = excluded.name,
				username = excluded.username,
				uris = excluded.uris,
				description = excluded.description,
				modified = excluded.modified,
				expired = excluded.expired,
				awaiting_update = 0
	`
	_, err = r.db.ExecContext(ctx, query,
		res.ID, res.ResourceTypeID, res.FolderParentID, res.Secret,
		res.Metadata.Name, res.Metadata.Username, string(uris), res.Metadata.Description,
		formatTime(res.Modified), formatOptionalTime(res.Expired))
	if err != nil {
		return fmt.Errorf("failed to upsert resource: %w", err)
	}

	if err := r.replacePermissions(ctx, res.ID, res.Permissions); err != nil {
		return err
	}
	return r.replaceTags(ctx, res.ID, res.Tags)
}

func (r *SQLiteRepository) replacePermissions(ctx context.Context, resourceID uuid.UUID, perms []models.Permission) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM resource_permissions WHERE resource_id = ?`, resourceID); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}
	for _, p := range perms {
		_, err := r.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO resource_permissions (id, resource_id, kind, subject_id, level) VALUES (?, ?, ?, ?, ?)`,
			p.ID, resourceID, string(p.Kind), p.SubjectID, int(p.Level))
		if err != nil {
			return fmt.Errorf("failed to insert permission: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) replaceTags(ctx context.Context, resourceID uuid.UUID, tags []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM resource_tags WHERE resource_id = ?`, resourceID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	for _, slug := range tags {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO tags (slug) VALUES (?) ON CONFLICT(slug) DO NOTHING`, slug); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO resource_tags (resource_id, tag_id) SELECT ?, id FROM tags WHERE slug = ?`,
			resourceID, slug)
		if err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, res []models.Resource) error {
	for _, q := range []string{
		`DELETE FROM resource_tags`,
		`DELETE FROM resource_permissions`,
		`DELETE FROM resources`,
	} {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to clear resources: %w", err)
		}
	}
	for _, item := range res {
		if err := r.Upsert(ctx, item); err != nil {
			return err
		}
	}
	_, err := r.PurgeUnusedTags(ctx)
	return err
}

func (r *SQLiteRepository) MarkAwaitingUpdate(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE resources SET awaiting_update = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark resources: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteAwaitingUpdate(ctx context.Context) (int64, error) {
	for _, q := range []string{
		`DELETE FROM resource_tags WHERE resource_id IN (SELECT id FROM resources WHERE awaiting_update = 1)`,
		`DELETE FROM resource_permissions WHERE resource_id IN (SELECT id FROM resources WHERE awaiting_update = 1)`,
	} {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("failed to delete stale resource links: %w", err)
		}
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE awaiting_update = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale resources: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) ClearAwaitingUpdate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE resources SET awaiting_update = 0 WHERE awaiting_update = 1`); err != nil {
		return fmt.Errorf("failed to clear awaiting update: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) PurgeUnusedTags(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id NOT IN (SELECT tag_id FROM resource_tags)`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tags: %w", err)
	}
	return res.RowsAffected()
}

// GetAll lists resources ordered by name, returning only overview fields.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.ResourceOverview, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, username, uris, folder_parent_id FROM resources ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select resources: %w", err)
	}
	defer rows.Close()

	var result []models.ResourceOverview
	for rows.Next() {
		var (
			item   models.ResourceOverview
			uris   string
			folder uuid.NullUUID
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Username, &uris, &folder); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		var list []string
		if err := json.Unmarshal([]byte(uris), &list); err == nil && len(list) > 0 {
			item.URI = list[0]
		}
		if folder.Valid {
			item.FolderParentID = &folder.UUID
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns a full resource or common.ErrorNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	query := `SELECT id, resource_type_id, folder_parent_id, secret, name, username, uris, description, modified, expired
		FROM resources WHERE id = ?`

	var (
		res      models.Resource
		folder   uuid.NullUUID
		uris     string
		modified string
		expired  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&res.ID, &res.ResourceTypeID, &folder, &res.Secret,
		&res.Metadata.Name, &res.Metadata.Username, &uris, &res.Metadata.Description, &modified, &expired)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	if folder.Valid {
		res.FolderParentID = &folder.UUID
	}
	if err := json.Unmarshal([]byte(uris), &res.Metadata.URIs); err != nil {
		return nil, fmt.Errorf("failed to decode uris: %w", err)
	}
	if len(res.Metadata.URIs) == 0 {
		res.Metadata.URIs = nil
	}
	if res.Modified, err = time.Parse(time.RFC3339Nano, modified); err != nil {
		return nil, fmt.Errorf("failed to parse modified: %w", err)
	}
	if expired.Valid {
		t, err := time.Parse(time.RFC3339Nano, expired.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expired: %w", err)
		}
		res.Expired = &t
	}

	if res.Permissions, err = r.permissions(ctx, id); err != nil {
		return nil, err
	}
	if res.Tags, err = r.tags(ctx, id); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *SQLiteRepository) permissions(ctx context.Context, resourceID uuid.UUID) ([]models.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, subject_id, level FROM resource_permissions WHERE resource_id = ? ORDER BY kind, subject_id`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select permissions: %w", err)
	}
	defer rows.Close()

	var result []models.Permission
	for rows.Next() {
		var (
			p    models.Permission
			id   uuid.NullUUID
			kind string
		)
		if err := rows.Scan(&id, &kind, &p.SubjectID, &p.Level); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		if id.Valid {
			p.ID = &id.UUID
		}
		p.Kind = models.PermissionKind(kind)
		p.TargetID = resourceID
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) tags(ctx context.Context, resourceID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.slug FROM tags t JOIN resource_tags rt ON rt.tag_id = t.id WHERE rt.resource_id = ? ORDER BY t.slug`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		result = append(result, slug)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return n, nil
}
