// Package application holds the submission model shared by the upload handler,
// the workbook store and the HTTP transport.
package application

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type Kind string

const (
	KindJob        Kind = "job"
	KindInternship Kind = "internship"
)

// MaxCellChars is the longest value a workbook cell holds; the xlsx writer
// truncates anything longer.
const MaxCellChars = 32767

const (
	JobTable        = "Job_Applications"
	InternshipTable = "Intern_Applications"
)

var (
	jobHeader        = []string{"Name", "Email", "Phone", "Resume"}
	internshipHeader = []string{"Name", "Email", "Phone", "Cover Letter"}
)

// ParseKind maps the form's formType field. Only the exact value "jobs"
// selects a job application; every other value, "Jobs" included, is an
// internship.
func ParseKind(formType string) Kind {
	if formType == "jobs" {
		return KindJob
	}
	return KindInternship
}

// KindForTable is the inverse of Kind.Table.
func KindForTable(table string) (Kind, bool) {
	switch table {
	case JobTable:
		return KindJob, true
	case InternshipTable:
		return KindInternship, true
	default:
		return "", false
	}
}

func (k Kind) Table() string {
	if k == KindJob {
		return JobTable
	}
	return InternshipTable
}

func (k Kind) Header() []string {
	if k == KindJob {
		return append([]string(nil), jobHeader...)
	}
	return append([]string(nil), internshipHeader...)
}

type Applicant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type JobDetails struct {
	ResumeFilename string `json:"resume_filename"`
}

type InternshipDetails struct {
	CoverLetter string `json:"cover_letter"`
}

// Submission is one validated application. Exactly one of Job and Internship
// is set; use NewJobSubmission or NewInternshipSubmission to build one.
type Submission struct {
	ID          string             `json:"id"`
	Applicant   Applicant          `json:"applicant"`
	Job         *JobDetails        `json:"job,omitempty"`
	Internship  *InternshipDetails `json:"internship,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

func NewJobSubmission(id string, a Applicant, resumeFilename string, at time.Time) (Submission, error) {
	s := Submission{ID: id, Applicant: a, Job: &JobDetails{ResumeFilename: resumeFilename}, SubmittedAt: at}
	if err := s.Validate(); err != nil {
		return Submission{}, err
	}
	return s, nil
}

func NewInternshipSubmission(id string, a Applicant, coverLetter string, at time.Time) (Submission, error) {
	s := Submission{ID: id, Applicant: a, Internship: &InternshipDetails{CoverLetter: coverLetter}, SubmittedAt: at}
	if err := s.Validate(); err != nil {
		return Submission{}, err
	}
	return s, nil
}

func (s Submission) Kind() Kind {
	if s.Job != nil {
		return KindJob
	}
	return KindInternship
}

// Validate reports a validation error when the kind-dependent payload is
// missing or when both payloads are set.
func (s Submission) Validate() error {
	switch {
	case s.Job != nil && s.Internship != nil:
		return NewValidationError("submission has both job and internship details")
	case s.Job != nil:
		if strings.TrimSpace(s.Job.ResumeFilename) == "" {
			return NewValidationError("Resume file is required for job applications.")
		}
	case s.Internship != nil:
		if strings.TrimSpace(s.Internship.CoverLetter) == "" {
			return NewValidationError("Cover letter is required for internship applications.")
		}
	default:
		return NewValidationError("submission has no job or internship details")
	}
	header := s.Kind().Header()
	for i, v := range s.Row() {
		if utf8.RuneCountInString(v) > MaxCellChars {
			return NewValidationError(fmt.Sprintf("%s must be at most %d characters.", header[i], MaxCellChars))
		}
	}
	return nil
}

// Row returns the table row in header column order.
func (s Submission) Row() []string {
	last := ""
	if s.Job != nil {
		last = s.Job.ResumeFilename
	} else if s.Internship != nil {
		last = s.Internship.CoverLetter
	}
	return []string{s.Applicant.Name, s.Applicant.Email, s.Applicant.Phone, last}
}
