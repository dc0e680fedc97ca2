package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	got := SplitStatements(`
-- comment; with a semicolon
CREATE TABLE a (id INT);

  -- another
CREATE TABLE b (id INT);
`)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, got)
}

func TestMigrateSQLiteIsRepeatable(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, "sqlite"))
	require.NoError(t, Migrate(db, "sqlite"))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)

	for _, table := range []string{"events", "orders", "order_items", "tickets", "staff"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestApplyMigrationsRollsBackFailedFile(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fsys := fstest.MapFS{
		"x/001_ok.sql":  {Data: []byte("CREATE TABLE one (id INTEGER);")},
		"x/002_bad.sql": {Data: []byte("CREATE TABLE two (id INTEGER); THIS IS NOT SQL;")},
	}
	err = ApplyMigrations(db, fsys, "x")
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE name = 'two'").Scan(new(string))
	assert.Error(t, err, "table from the failed file must not exist")
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}
