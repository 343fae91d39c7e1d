// Package intake turns a submitted application form into a stored upload,
// a workbook row and the optional side records that follow it.
package intake

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"application-intake-go/internal/application"
	"application-intake-go/internal/cache"
	"application-intake-go/internal/logger"
	"application-intake-go/internal/notify"
	"application-intake-go/internal/store"
	"application-intake-go/internal/upload"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idSize        = 21
	receiptPrefix = "receipt:"
	notifyTimeout = 30 * time.Second
)

type Uploader interface {
	Store(ctx context.Context, r io.Reader, originalName string) (upload.StoredFile, error)
	Remove(ctx context.Context, sf upload.StoredFile) error
}

type Appender interface {
	Append(ctx context.Context, sub application.Submission) (store.AppendResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// Request is the decoded form. File is nil when nothing was attached.
type Request struct {
	FormType    string
	Name        string
	Email       string
	Phone       string
	CoverLetter string
	File        io.Reader
	Filename    string
}

type Receipt struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Table          string    `json:"table"`
	Row            int       `json:"row"`
	ResumeFilename string    `json:"resume_filename,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type Options struct {
	Mirror     store.Mirror
	Cache      cache.Cache
	Notifier   Notifier
	ReceiptTTL time.Duration
	Now        func() time.Time
	NewID      func() string
}

type Service struct {
	uploads    Uploader
	appender   Appender
	mirror     store.Mirror
	cache      cache.Cache
	notifier   Notifier
	receiptTTL time.Duration
	now        func() time.Time
	newID      func() string

	wg sync.WaitGroup
}

func New(uploads Uploader, appender Appender, opts Options) *Service {
	s := &Service{
		uploads:    uploads,
		appender:   appender,
		mirror:     opts.Mirror,
		cache:      opts.Cache,
		notifier:   opts.Notifier,
		receiptTTL: opts.ReceiptTTL,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = NewID
	}
	return s
}

func NewID() string {
	return gonanoid.MustGenerate(idAlphabet, idSize)
}

// Submit runs one submission through upload and append. Failures after the
// row is persisted are logged and never reported to the caller. A stored
// upload whose row could not be written is removed again.
func (s *Service) Submit(ctx context.Context, req Request) (Receipt, error) {
	kind := application.ParseKind(req.FormType)
	filename := application.CleanText(req.Filename)
	hasFile := req.File != nil && strings.TrimSpace(filename) != ""

	switch kind {
	case application.KindJob:
		if !hasFile {
			return Receipt{}, application.NewValidationError("Resume file is required for job applications.")
		}
	case application.KindInternship:
		if strings.TrimSpace(req.CoverLetter) == "" {
			return Receipt{}, application.NewValidationError("Cover letter is required for internship applications.")
		}
	}

	applicant := application.Applicant{
		Name:  strings.TrimSpace(application.CleanText(req.Name)),
		Email: strings.TrimSpace(application.CleanText(req.Email)),
		Phone: strings.TrimSpace(application.CleanText(req.Phone)),
	}
	coverLetter := application.CleanText(req.CoverLetter)
	id := s.newID()
	at := s.now()

	build := func(resumeName string) (application.Submission, error) {
		if kind == application.KindJob {
			return application.NewJobSubmission(id, applicant, resumeName, at)
		}
		return application.NewInternshipSubmission(id, applicant, coverLetter, at)
	}
	// the assigned name is not known yet, the original one stands in
	if _, err := build(filename); err != nil {
		return Receipt{}, err
	}

	var stored *upload.StoredFile
	if hasFile {
		sf, err := s.uploads.Store(ctx, req.File, filename)
		if err != nil {
			return Receipt{}, err
		}
		stored = &sf
	}
	resumeName := ""
	if stored != nil {
		resumeName = stored.AssignedName
	}

	sub, err := build(resumeName)
	if err != nil {
		s.discardUpload(stored)
		return Receipt{}, err
	}

	res, err := s.appender.Append(ctx, sub)
	if err != nil {
		logger.Error("append submission failed", "id", id, "kind", string(kind), "err", err)
		s.discardUpload(stored)
		return Receipt{}, err
	}

	rc := Receipt{
		ID:          id,
		Kind:        string(kind),
		Table:       res.Table,
		Row:         res.Row,
		SubmittedAt: at,
	}
	if kind == application.KindJob {
		rc.ResumeFilename = resumeName
	}
	logger.Info("submission stored", "id", id, "kind", rc.Kind, "table", rc.Table, "row", rc.Row)

	s.mirrorSubmission(ctx, sub)
	s.cacheReceipt(ctx, rc)
	s.notify(sub, rc)
	return rc, nil
}

// Receipt looks up a receipt cached by an earlier Submit.
func (s *Service) Receipt(ctx context.Context, id string) (Receipt, bool, error) {
	if s.cache == nil {
		return Receipt{}, false, nil
	}
	var rc Receipt
	ok, err := cache.GetJSON(ctx, s.cache, receiptPrefix+id, &rc)
	if err != nil || !ok {
		return Receipt{}, false, err
	}
	return rc, true, nil
}

// Close waits for pending notifications.
func (s *Service) Close() {
	s.wg.Wait()
}

// discardUpload runs detached from the request context so a canceled
// request still cleans up.
func (s *Service) discardUpload(sf *upload.StoredFile) {
	if sf == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := s.uploads.Remove(ctx, *sf); err != nil {
		logger.Warn("discard upload failed", "assigned_name", sf.AssignedName, "err", err)
	}
}

func (s *Service) mirrorSubmission(ctx context.Context, sub application.Submission) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Insert(ctx, sub); err != nil {
		logger.Warn("mirror insert failed", "id", sub.ID, "backend", s.mirror.Backend(), "err", err)
	}
}

func (s *Service) cacheReceipt(ctx context.Context, rc Receipt) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, receiptPrefix+rc.ID, rc, s.receiptTTL); err != nil {
		logger.Warn("cache receipt failed", "id", rc.ID, "err", err)
	}
}

func (s *Service) notify(sub application.Submission, rc Receipt) {
	if s.notifier == nil {
		return
	}
	ev := notify.Event{
		ID:             rc.ID,
		Kind:           rc.Kind,
		Table:          rc.Table,
		Row:            rc.Row,
		Name:           sub.Applicant.Name,
		Email:          sub.Applicant.Email,
		ResumeFilename: rc.ResumeFilename,
		SubmittedAt:    rc.SubmittedAt,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, ev); err != nil {
			logger.Warn("notify failed", "id", ev.ID, "err", err)
		}
	}()
}
