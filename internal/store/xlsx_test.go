package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"application-intake-go/internal/application"

	"github.com/xuri/excelize/v2"
)

func jobSub(t *testing.T, name, resume string) application.Submission {
	t.Helper()
	s, err := application.NewJobSubmission("id-"+name, application.Applicant{Name: name, Email: name + "@example.com", Phone: "555"}, resume, time.Now())
	if err != nil {
		t.Fatalf("NewJobSubmission: %v", err)
	}
	return s
}

func internSub(t *testing.T, name, letter string) application.Submission {
	t.Helper()
	s, err := application.NewInternshipSubmission("id-"+name, application.Applicant{Name: name, Email: name + "@example.com", Phone: "555"}, letter, time.Now())
	if err != nil {
		t.Fatalf("NewInternshipSubmission: %v", err)
	}
	return s
}

func TestXlsxStoreAppendCreatesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	s := NewXlsxStore(path)

	res, err := s.Append(context.Background(), jobSub(t, "ada", "cv_20240305140709.pdf"))
	if err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if res.Table != application.JobTable || res.Row != 2 || res.DataRows != 1 || !res.TableCreated {
		t.Fatalf("unexpected result %+v", res)
	}

	rows, err := s.Rows(application.JobTable)
	if err != nil {
		t.Fatalf("Rows err: %v", err)
	}
	want := [][]string{
		{"Name", "Email", "Phone", "Resume"},
		{"ada", "ada@example.com", "555", "cv_20240305140709.pdf"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v", rows)
	}

	tables, err := s.Tables()
	if err != nil {
		t.Fatalf("Tables err: %v", err)
	}
	if !reflect.DeepEqual(tables, []string{application.JobTable}) {
		t.Fatalf("fresh workbook should only hold the job table, got %v", tables)
	}
}

func TestXlsxStoreAppendBothKinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	s := NewXlsxStore(path)
	ctx := context.Background()

	if _, err := s.Append(ctx, jobSub(t, "a", "a.pdf")); err != nil {
		t.Fatalf("append job: %v", err)
	}
	res, err := s.Append(ctx, internSub(t, "b", "I like Go"))
	if err != nil {
		t.Fatalf("append internship: %v", err)
	}
	if res.Table != application.InternshipTable || res.Row != 2 || !res.TableCreated {
		t.Fatalf("unexpected result %+v", res)
	}
	res, err = s.Append(ctx, jobSub(t, "c", "c.pdf"))
	if err != nil {
		t.Fatalf("append job: %v", err)
	}
	if res.Row != 3 || res.TableCreated {
		t.Fatalf("second job should land in row 3 of the existing table: %+v", res)
	}

	rows, err := s.Rows(application.InternshipTable)
	if err != nil {
		t.Fatalf("Rows err: %v", err)
	}
	want := [][]string{
		{"Name", "Email", "Phone", "Cover Letter"},
		{"b", "b@example.com", "555", "I like Go"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("internship rows = %#v", rows)
	}
	jobs, err := s.Rows(application.JobTable)
	if err != nil {
		t.Fatalf("Rows err: %v", err)
	}
	if len(jobs) != 3 || jobs[2][3] != "c.pdf" {
		t.Fatalf("job rows = %#v", jobs)
	}
}

func TestXlsxStoreValidationDoesNotTouchDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	s := NewXlsxStore(path)

	bad := application.Submission{Applicant: application.Applicant{Name: "x"}, Job: &application.JobDetails{}}
	_, err := s.Append(context.Background(), bad)
	if !application.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("workbook must not be created on validation failure (stat err=%v)", err)
	}

	if _, err := s.Append(context.Background(), jobSub(t, "a", "a.pdf")); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := s.Append(context.Background(), bad); !application.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("workbook changed on validation failure")
	}
}

func TestXlsxStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	const n = 12
	want := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		sub := internSub(t, fmt.Sprintf("n%02d", i), fmt.Sprintf("letter %d", i))
		if _, err := NewXlsxStore(path).Append(context.Background(), sub); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		want = append(want, sub.Row())
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(application.InternshipTable)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != n+1 {
		t.Fatalf("expected %d rows, got %d", n+1, len(rows))
	}
	if !reflect.DeepEqual(rows[1:], want) {
		t.Fatalf("rows out of order: %#v", rows[1:])
	}
}

func TestXlsxStoreRejectsOversizedCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	s := NewXlsxStore(path)

	long := application.Submission{
		ID:         "long",
		Applicant:  application.Applicant{Name: "x"},
		Internship: &application.InternshipDetails{CoverLetter: strings.Repeat("a", 40000)},
	}
	if _, err := s.Append(context.Background(), long); !application.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("workbook must not be created for an oversized cell (stat err=%v)", err)
	}

	letter := strings.Repeat("b", application.MaxCellChars)
	if _, err := s.Append(context.Background(), internSub(t, "max", letter)); err != nil {
		t.Fatalf("append at limit: %v", err)
	}
	rows, err := s.Rows(application.InternshipTable)
	if err != nil {
		t.Fatalf("Rows err: %v", err)
	}
	if got := len(rows[1][3]); got != application.MaxCellChars {
		t.Fatalf("stored len=%d want=%d", got, application.MaxCellChars)
	}
}

func TestXlsxStoreCleanTextRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	s := NewXlsxStore(path)

	name := application.CleanText("A\x01da\xffz")
	letter := application.CleanText("Dear team,\n\tI\x07 like Go.")
	sub := internSub(t, name, letter)
	if _, err := s.Append(context.Background(), sub); err != nil {
		t.Fatalf("append: %v", err)
	}
	rows, err := s.Rows(application.InternshipTable)
	if err != nil {
		t.Fatalf("Rows err: %v", err)
	}
	if !reflect.DeepEqual(rows[1], sub.Row()) {
		t.Fatalf("row = %#v, want %#v", rows[1], sub.Row())
	}
	if rows[1][0] != "Adaz" {
		t.Fatalf("name = %q", rows[1][0])
	}
}

func TestXlsxStoreConcurrentAppendsKeepEveryRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	a := NewXlsxStore(path)
	b := NewXlsxStore(path)

	const perWriter = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*perWriter)
	for w, s := range []*XlsxStore{a, b} {
		wg.Add(1)
		go func(w int, s *XlsxStore) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				sub := jobSub(t, fmt.Sprintf("w%d-%d", w, i), "cv.pdf")
				if _, err := s.Append(context.Background(), sub); err != nil {
					errs <- err
				}
			}
		}(w, s)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent append: %v", err)
	}

	rows, err := a.Rows(application.JobTable)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2*perWriter+1 {
		t.Fatalf("lost update: expected %d rows, got %d", 2*perWriter+1, len(rows))
	}
}

func TestXlsxStoreCorruptWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	if err := os.WriteFile(path, []byte("not a zip archive"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := NewXlsxStore(path).Append(context.Background(), jobSub(t, "a", "a.pdf"))
	if application.KindOf(err) != application.ErrorKindStoreCorrupt {
		t.Fatalf("expected store_corrupt, got %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "not a zip archive" {
		t.Fatalf("corrupt workbook must be left as is")
	}
}

func TestXlsxStoreHeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", application.JobTable); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := f.SetSheetRow(application.JobTable, "A1", &[]any{"Who", "Mail"}); err != nil {
		t.Fatalf("row: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	_, err := NewXlsxStore(path).Append(context.Background(), jobSub(t, "a", "a.pdf"))
	if application.KindOf(err) != application.ErrorKindStoreCorrupt {
		t.Fatalf("expected store_corrupt on header mismatch, got %v", err)
	}
}

func TestXlsxStoreKeepsForeignSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	f := excelize.NewFile()
	if err := f.SetCellStr("Sheet1", "A1", "notes"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	s := NewXlsxStore(path)
	if _, err := s.Append(context.Background(), internSub(t, "a", "hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	tables, err := s.Tables()
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if !reflect.DeepEqual(tables, []string{"Sheet1", application.InternshipTable}) {
		t.Fatalf("tables = %v", tables)
	}
}

func TestXlsxStoreRowsMissing(t *testing.T) {
	s := NewXlsxStore(filepath.Join(t.TempDir(), "applications.xlsx"))
	if _, err := s.Rows(application.JobTable); err != ErrTableNotFound {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	tables, err := s.Tables()
	if err != nil || len(tables) != 0 {
		t.Fatalf("Tables() = %v, %v", tables, err)
	}
}

func TestXlsxStoreCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.xlsx")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewXlsxStore(path).Append(ctx, jobSub(t, "a", "a.pdf")); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("canceled append must not write")
	}
}

func TestSaveAtomicFailureLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := saveAtomic(f, filepath.Join(blocker, "applications.xlsx")); err == nil {
		t.Fatalf("expected error when parent is a file")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("unexpected leftovers: %v", entries)
	}
}
