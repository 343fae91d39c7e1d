package store

import (
	"database/sql"
	"errors"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openPostgresMirror(dsn string) (*sqlMirror, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("POSTGRES_DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	setDBPoolDefaults(db, 8)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT NOT NULL PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			resume_filename TEXT NOT NULL DEFAULT '',
			cover_letter TEXT NOT NULL DEFAULT '',
			submitted_at BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_kind ON submissions(kind, submitted_at);`,
	}
	if err := execSchema(db, backendPostgres, stmts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLMirror(db, backendPostgres), nil
}
