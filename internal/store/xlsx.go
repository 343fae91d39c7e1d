package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"application-intake-go/internal/application"
	"application-intake-go/internal/logger"

	"github.com/xuri/excelize/v2"
)

var ErrTableNotFound = errors.New("table not found")

// bookLocks serializes read-modify-write cycles per workbook file, shared by
// every XlsxStore in the process.
var bookLocks sync.Map

func lockFor(path string) *sync.Mutex {
	mu, _ := bookLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

type AppendResult struct {
	Table        string `json:"table"`
	Row          int    `json:"row"`
	DataRows     int    `json:"data_rows"`
	TableCreated bool   `json:"table_created"`
}

// XlsxStore is the append-only table store backed by a single workbook.
type XlsxStore struct {
	Path string
}

func NewXlsxStore(path string) *XlsxStore {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &XlsxStore{Path: filepath.Clean(path)}
}

// Append validates sub, then loads the workbook, resolves (or creates) the
// table for its kind, appends one row and replaces the file on disk.
func (s *XlsxStore) Append(ctx context.Context, sub application.Submission) (AppendResult, error) {
	if err := sub.Validate(); err != nil {
		return AppendResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return AppendResult{}, err
	}

	mu := lockFor(s.Path)
	mu.Lock()
	defer mu.Unlock()

	f, fresh, err := openOrCreateBook(s.Path)
	if err != nil {
		return AppendResult{}, application.NewStoreCorruptError(s.Path, err)
	}
	defer func() { _ = f.Close() }()

	kind := sub.Kind()
	table := kind.Table()
	header := kind.Header()

	created, err := ensureSheet(f, table, fresh)
	if err != nil {
		return AppendResult{}, application.NewPersistError(s.Path, err)
	}
	rows, err := ensureHeader(f, table, header)
	if err != nil {
		if errors.Is(err, errHeaderMismatch) {
			return AppendResult{}, application.NewStoreCorruptError(s.Path, err)
		}
		return AppendResult{}, application.NewPersistError(s.Path, err)
	}

	row := sub.Row()
	next := len(rows) + 1
	if err := writeRow(f, table, next, row); err != nil {
		return AppendResult{}, application.NewPersistError(s.Path, err)
	}
	applyAutoWidth(f, table, header, row)
	if idx, err := f.GetSheetIndex(table); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := saveAtomic(f, s.Path); err != nil {
		return AppendResult{}, application.NewPersistError(s.Path, err)
	}

	logger.Debug("workbook row appended", "path", s.Path, "table", table, "row", next, "table_created", created)
	return AppendResult{Table: table, Row: next, DataRows: next - 1, TableCreated: created}, nil
}

// Rows returns the persisted rows of table, header first.
func (s *XlsxStore) Rows(table string) ([][]string, error) {
	mu := lockFor(s.Path)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, application.NewStoreCorruptError(s.Path, err)
	}
	defer func() { _ = f.Close() }()

	if !hasSheet(f, table) {
		return nil, ErrTableNotFound
	}
	rows, err := f.GetRows(table)
	if err != nil {
		return nil, application.NewStoreCorruptError(s.Path, err)
	}
	return rows, nil
}

// Tables lists the sheets of the workbook; a missing file has none.
func (s *XlsxStore) Tables() ([]string, error) {
	mu := lockFor(s.Path)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, application.NewStoreCorruptError(s.Path, err)
	}
	defer func() { _ = f.Close() }()
	return f.GetSheetList(), nil
}

// saveAtomic writes the workbook next to path and renames it into place, so
// readers see either the previous or the new document, never a partial one.
func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp workbook: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
