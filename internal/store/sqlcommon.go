package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"application-intake-go/internal/application"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
)

type backendKind string

const (
	backendFile     backendKind = "file"
	backendSQLite   backendKind = "sqlite"
	backendMySQL    backendKind = "mysql"
	backendPostgres backendKind = "postgres"
	backendMongoDB  backendKind = "mongodb"
)

func parseBackend(v string) backendKind {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sqlite":
		return backendSQLite
	case "mysql":
		return backendMySQL
	case "postgres", "postgresql":
		return backendPostgres
	case "mongodb", "mongo":
		return backendMongoDB
	default:
		return backendFile
	}
}

const submissionsTable = "submissions"

var submissionColumns = []string{
	"id",
	"kind",
	"name",
	"email",
	"phone",
	"resume_filename",
	"cover_letter",
	"submitted_at",
}

// MirrorRecord is the flattened form of a submission kept by database mirrors.
type MirrorRecord struct {
	ID             string `db:"id" bson:"_id" json:"id"`
	Kind           string `db:"kind" bson:"kind" json:"kind"`
	Name           string `db:"name" bson:"name" json:"name"`
	Email          string `db:"email" bson:"email" json:"email"`
	Phone          string `db:"phone" bson:"phone" json:"phone"`
	ResumeFilename string `db:"resume_filename" bson:"resume_filename" json:"resume_filename,omitempty"`
	CoverLetter    string `db:"cover_letter" bson:"cover_letter" json:"cover_letter,omitempty"`
	SubmittedAt    int64  `db:"submitted_at" bson:"submitted_at" json:"submitted_at"`
}

func recordFromSubmission(sub application.Submission) MirrorRecord {
	rec := MirrorRecord{
		ID:          sub.ID,
		Kind:        string(sub.Kind()),
		Name:        sub.Applicant.Name,
		Email:       sub.Applicant.Email,
		Phone:       sub.Applicant.Phone,
		SubmittedAt: sub.SubmittedAt.Unix(),
	}
	if sub.Job != nil {
		rec.ResumeFilename = sub.Job.ResumeFilename
	}
	if sub.Internship != nil {
		rec.CoverLetter = sub.Internship.CoverLetter
	}
	return rec
}

// sqlMirror keeps a copy of every accepted submission in a SQL database.
type sqlMirror struct {
	db      *sql.DB
	backend backendKind
	sb      sq.StatementBuilderType
}

func newSQLMirror(db *sql.DB, backend backendKind) *sqlMirror {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if backend == backendPostgres {
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &sqlMirror{db: db, backend: backend, sb: sb}
}

func (m *sqlMirror) Backend() string { return string(m.backend) }

// Insert is idempotent on the submission id.
func (m *sqlMirror) Insert(ctx context.Context, sub application.Submission) error {
	rec := recordFromSubmission(sub)
	ins := m.sb.Insert(submissionsTable).
		Columns(submissionColumns...).
		Values(rec.ID, rec.Kind, rec.Name, rec.Email, rec.Phone, rec.ResumeFilename, rec.CoverLetter, rec.SubmittedAt)
	switch m.backend {
	case backendSQLite:
		ins = ins.Options("OR IGNORE")
	case backendMySQL:
		ins = ins.Options("IGNORE")
	case backendPostgres:
		ins = ins.Suffix("ON CONFLICT (id) DO NOTHING")
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s mirror insert %s: %w", m.backend, rec.ID, err)
	}
	return nil
}

func (m *sqlMirror) Recent(ctx context.Context, kind application.Kind, limit int) ([]MirrorRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args, err := m.sb.Select(submissionColumns...).
		From(submissionsTable).
		Where(sq.Eq{"kind": string(kind)}).
		OrderBy("submitted_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []MirrorRecord
	if err := sqlscan.Select(ctx, m.db, &out, query, args...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []MirrorRecord{}
	}
	return out, nil
}

func (m *sqlMirror) Close() error {
	return m.db.Close()
}

func execSchema(db *sql.DB, backend backendKind, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s init schema: %w", backend, err)
		}
	}
	return nil
}

func setDBPoolDefaults(db *sql.DB, maxOpen int) {
	if db == nil {
		return
	}
	if maxOpen <= 0 {
		maxOpen = 4
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(2 * time.Minute)
}
