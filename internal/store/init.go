package store

import (
	"context"
	"time"

	"application-intake-go/internal/application"
	"application-intake-go/internal/config"
)

// Mirror keeps a secondary, queryable copy of accepted submissions. The
// workbook stays the system of record.
type Mirror interface {
	Backend() string
	Insert(ctx context.Context, sub application.Submission) error
	Recent(ctx context.Context, kind application.Kind, limit int) ([]MirrorRecord, error)
	Close() error
}

// NewMirrorFromConfig opens the backend selected by STORE_BACKEND and pings it.
// The "file" backend has no mirror and returns nil.
func NewMirrorFromConfig(ctx context.Context, cfg config.Config) (Mirror, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	var (
		m   *sqlMirror
		err error
	)
	switch parseBackend(cfg.StoreBackend) {
	case backendSQLite:
		m, err = openSQLiteMirror(cfg.SQLitePath)
	case backendMySQL:
		m, err = openMySQLMirror(cfg.MySQLDSN)
	case backendPostgres:
		m, err = openPostgresMirror(cfg.PostgresDSN)
	case backendMongoDB:
		mm, err := openMongoMirror(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return mm, nil
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := m.db.PingContext(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}
