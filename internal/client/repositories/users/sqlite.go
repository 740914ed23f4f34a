package users

import (
	"context"
	"database/sql"
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

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, users []models.User) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	for _, u := range users {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO users (id, username, first_name, last_name, public_key, signing_key, active)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, u.FirstName, u.LastName, u.PublicKey, u.SigningKey, u.Active)
		if err != nil {
			return fmt.Errorf("failed to insert user %s: %w", u.Username, err)
		}
	}
	return nil
}

const selectUsers = `SELECT id, username, first_name, last_name, public_key, signing_key, active FROM users`

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUsers+` ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PublicKey, &u.SigningKey, &u.Active); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, selectUsers+` WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PublicKey, &u.SigningKey, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &u, nil
}

func (r *SQLiteRepository) key(ctx context.Context, column string, id uuid.UUID) ([]byte, error) {
	var key []byte
	err := r.db.QueryRowContext(ctx, `SELECT `+column+` FROM users WHERE id = ?`, id).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", column, err)
	}
	return key, nil
}

func (r *SQLiteRepository) PublicKey(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return r.key(ctx, "public_key", id)
}

func (r *SQLiteRepository) SigningKey(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return r.key(ctx, "signing_key", id)
}
