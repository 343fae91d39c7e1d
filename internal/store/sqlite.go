package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func openSQLiteMirror(path string) (*sqlMirror, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "data/applications.db"
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT NOT NULL PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			resume_filename TEXT NOT NULL DEFAULT '',
			cover_letter TEXT NOT NULL DEFAULT '',
			submitted_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_kind ON submissions(kind, submitted_at);`,
	}
	if err := execSchema(db, backendSQLite, stmts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLMirror(db, backendSQLite), nil
}
