// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/orgkeeper/internal/client/migrations"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// Open returns a fresh database private to t with the full schema applied
// and foreign keys enforced. It is closed on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}
