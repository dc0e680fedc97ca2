// Package dbtest opens a migrated SQLite database for tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/iliyamo/boxoffice/internal/database"
)

// Open returns a fresh, migrated SQLite database in t.TempDir().  The pool is
// capped at one connection so concurrent test goroutines interleave at
// statement granularity instead of hitting SQLITE_BUSY.
func Open(t testing.TB) *sql.DB {
	return OpenPool(t, 1)
}

// OpenPool is like Open but allows up to conns connections, the way the
// server runs.  Writers then contend on SQLite's lock and wait out the busy
// timeout.
func OpenPool(t testing.TB, conns int) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "boxoffice.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
