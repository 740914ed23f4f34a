package resourcetypes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, types []models.ResourceType) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM resource_types`); err != nil {
		return fmt.Errorf("failed to clear resource types: %w", err)
	}
	for _, t := range types {
		def, err := json.Marshal(t.Definition)
		if err != nil {
			return fmt.Errorf("failed to encode definition of %s: %w", t.Slug, err)
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO resource_types (id, slug, name, definition) VALUES (?, ?, ?, ?)`,
			t.ID, t.Slug, t.Name, def)
		if err != nil {
			return fmt.Errorf("failed to insert resource type: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanType(s scanner) (models.ResourceType, error) {
	var (
		t   models.ResourceType
		def []byte
	)
	if err := s.Scan(&t.ID, &t.Slug, &t.Name, &def); err != nil {
		return t, err
	}
	if err := json.Unmarshal(def, &t.Definition); err != nil {
		return t, fmt.Errorf("failed to decode definition of %s: %w", t.Slug, err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.ResourceType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, slug, name, definition FROM resource_types ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to select resource types: %w", err)
	}
	defer rows.Close()

	var result []models.ResourceType
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource type: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ResourceType, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, slug, name, definition FROM resource_types WHERE id = ?`, id)
	t, err := scanType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &t, nil
}
