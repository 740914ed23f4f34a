package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/orgkeeper/internal/filex"
	_ "modernc.org/sqlite"
)

// DSN builds the sqlite connection string for a database file. Foreign keys
// are enforced and writers wait on a locked database instead of failing.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// InitDatabase opens the database at path, creating its directory if
// needed, and migrates it to the latest schema.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
