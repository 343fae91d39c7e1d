package application

import (
	"errors"
	"net/http"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"jobs":        KindJob,
		" JOBS ":      KindInternship,
		"Jobs":        KindInternship,
		"jobs ":       KindInternship,
		"internships": KindInternship,
		"":            KindInternship,
		"job":         KindInternship,
	}
	for in, want := range cases {
		if got := ParseKind(in); got != want {
			t.Fatalf("ParseKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKindTableAndHeader(t *testing.T) {
	if KindJob.Table() != "Job_Applications" || KindInternship.Table() != "Intern_Applications" {
		t.Fatalf("unexpected table names %q %q", KindJob.Table(), KindInternship.Table())
	}
	if got := KindJob.Header(); !reflect.DeepEqual(got, []string{"Name", "Email", "Phone", "Resume"}) {
		t.Fatalf("job header = %#v", got)
	}
	if got := KindInternship.Header(); !reflect.DeepEqual(got, []string{"Name", "Email", "Phone", "Cover Letter"}) {
		t.Fatalf("internship header = %#v", got)
	}

	h := KindJob.Header()
	h[0] = "mutated"
	if KindJob.Header()[0] != "Name" {
		t.Fatalf("Header must return a copy")
	}

	for _, k := range []Kind{KindJob, KindInternship} {
		back, ok := KindForTable(k.Table())
		if !ok || back != k {
			t.Fatalf("KindForTable(%q) = %q,%v", k.Table(), back, ok)
		}
	}
	if _, ok := KindForTable("Sheet1"); ok {
		t.Fatalf("KindForTable accepted an unknown table")
	}
}

func TestSubmissionRowFollowsHeaderOrder(t *testing.T) {
	a := Applicant{Name: "Ada", Email: "ada@example.com", Phone: "0123"}
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

	job, err := NewJobSubmission("j1", a, "cv_20240305140709.pdf", at)
	if err != nil {
		t.Fatalf("NewJobSubmission: %v", err)
	}
	if job.Kind() != KindJob {
		t.Fatalf("kind = %q", job.Kind())
	}
	if got := job.Row(); !reflect.DeepEqual(got, []string{"Ada", "ada@example.com", "0123", "cv_20240305140709.pdf"}) {
		t.Fatalf("job row = %#v", got)
	}

	intern, err := NewInternshipSubmission("i1", a, "hello", at)
	if err != nil {
		t.Fatalf("NewInternshipSubmission: %v", err)
	}
	if intern.Kind() != KindInternship {
		t.Fatalf("kind = %q", intern.Kind())
	}
	if got := intern.Row(); !reflect.DeepEqual(got, []string{"Ada", "ada@example.com", "0123", "hello"}) {
		t.Fatalf("internship row = %#v", got)
	}
}

func TestSubmissionValidation(t *testing.T) {
	a := Applicant{Name: "Ada"}
	if _, err := NewJobSubmission("j", a, "  ", time.Now()); !IsValidation(err) {
		t.Fatalf("expected validation error for job without resume, got %v", err)
	}
	if _, err := NewInternshipSubmission("i", a, "", time.Now()); !IsValidation(err) {
		t.Fatalf("expected validation error for internship without cover letter, got %v", err)
	}
	if err := (Submission{}).Validate(); !IsValidation(err) {
		t.Fatalf("expected validation error for empty submission, got %v", err)
	}
	both := Submission{Job: &JobDetails{ResumeFilename: "a"}, Internship: &InternshipDetails{CoverLetter: "b"}}
	if err := both.Validate(); !IsValidation(err) {
		t.Fatalf("expected validation error for mixed submission, got %v", err)
	}
}

func TestSubmissionRejectsOversizedCells(t *testing.T) {
	a := Applicant{Name: "Ada"}
	_, err := NewInternshipSubmission("i", a, strings.Repeat("x", MaxCellChars+1), time.Now())
	if !IsValidation(err) {
		t.Fatalf("expected validation error for long cover letter, got %v", err)
	}
	if got := PublicMessage(err); got != "Cover Letter must be at most 32767 characters." {
		t.Fatalf("PublicMessage = %q", got)
	}

	long := Applicant{Name: strings.Repeat("n", MaxCellChars+1)}
	if _, err := NewJobSubmission("j", long, "cv.pdf", time.Now()); !IsValidation(err) {
		t.Fatalf("expected validation error for long name, got %v", err)
	}

	// the limit counts characters, not bytes
	if _, err := NewInternshipSubmission("i", a, strings.Repeat("é", MaxCellChars), time.Now()); err != nil {
		t.Fatalf("cover letter at the limit rejected: %v", err)
	}
}

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"A\x01da\xffz":     "Adaz",
		"line1\r\nline2\t": "line1\r\nline2\t",
		"héllo ✓":          "héllo ✓",
		"\x00\x1f":         "",
		"a\uFFFEb":         "ab",
	}
	for in, want := range cases {
		if got := CleanText(in); got != want {
			t.Fatalf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	cause := os.ErrPermission
	cases := []struct {
		err    error
		kind   ErrorKind
		status int
	}{
		{nil, "", http.StatusOK},
		{NewValidationError("missing"), ErrorKindValidation, http.StatusBadRequest},
		{NewUploadError("uploads/a.pdf", cause), ErrorKindUpload, http.StatusInternalServerError},
		{NewStoreCorruptError("applications.xlsx", cause), ErrorKindStoreCorrupt, http.StatusInternalServerError},
		{NewPersistError("applications.xlsx", cause), ErrorKindPersist, http.StatusInternalServerError},
		{errors.New("plain"), ErrorKindUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.kind)
		}
		if got := StatusCode(tc.err); got != tc.status {
			t.Fatalf("StatusCode(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}

	wrapped := NewPersistError("applications.xlsx", cause)
	if !errors.Is(wrapped, os.ErrPermission) {
		t.Fatalf("persist error must unwrap to its cause")
	}
	if got := wrapped.Error(); got != "persist workbook applications.xlsx: permission denied" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NewValidationError("Resume file is required for job applications.")); got != "Resume file is required for job applications." {
		t.Fatalf("PublicMessage(validation) = %q", got)
	}
	if got := PublicMessage(NewPersistError("x", os.ErrClosed)); got != "Failed to submit application" {
		t.Fatalf("PublicMessage(persist) = %q", got)
	}
}
