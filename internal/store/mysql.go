package store

import (
	"database/sql"
	"errors"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

func openMySQLMirror(dsn string) (*sqlMirror, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("MYSQL_DSN is empty")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	setDBPoolDefaults(db, 8)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id VARCHAR(64) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(64) NOT NULL,
			resume_filename VARCHAR(512) NOT NULL DEFAULT '',
			cover_letter LONGTEXT NOT NULL,
			submitted_at BIGINT NOT NULL,
			PRIMARY KEY (id),
			KEY idx_submissions_kind (kind, submitted_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,
	}
	if err := execSchema(db, backendMySQL, stmts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLMirror(db, backendMySQL), nil
}
