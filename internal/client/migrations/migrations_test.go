package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/orgkeeper/internal/client/migrations"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestUp_CreatesSchemaAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, migrations.Up(ctx, db))
	require.NoError(t, migrations.Up(ctx, db), "second run must be a no-op")

	for _, table := range []string{
		"goose_db_version", "metadata", "resource_types", "folders", "resources",
		"resource_permissions", "tags", "resource_tags", "users", "user_groups", "user_group_members",
	} {
		require.True(t, tableExists(t, db, table), table)
	}
}
