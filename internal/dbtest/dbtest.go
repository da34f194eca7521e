// Package dbtest opens SQLite databases for tests.
package dbtest

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/starquake/quizai/internal/database"
)

// SetupTestDB returns the DSN of a fresh SQLite file in t.TempDir, opened with the pragmas production uses.
func SetupTestDB(t *testing.T) string {
	t.Helper()

	q := url.Values{}
	for _, pragma := range []string{"foreign_keys(1)", "journal_mode(WAL)", "synchronous(NORMAL)", "busy_timeout(5000)"} {
		q.Add("_pragma", pragma)
	}

	return "file:" + filepath.Join(t.TempDir(), "quizai.sqlite") + "?" + q.Encode()
}

// Open opens an in-memory database with the quiz schema migrated.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	db := OpenUnmigrated(t)
	database.SetupGoose()
	if err := database.Migrate(t.Context(), db); err != nil {
		t.Fatalf("error migrating database: %v", err)
	}

	return db
}

// OpenUnmigrated opens an in-memory database with foreign keys enforced and no schema.
// The pool holds one connection so every query sees the same in-memory database.
func OpenUnmigrated(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("error opening SQLite database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("error closing database: %v", closeErr)
		}
	})
	if _, err = db.ExecContext(t.Context(), "PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("error enabling foreign keys: %v", err)
	}

	return db
}
