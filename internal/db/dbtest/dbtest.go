// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/db"
)

// New returns a migrated SQLite database in a temp directory. It is closed
// when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Init("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	err = db.RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)

	return conn
}
