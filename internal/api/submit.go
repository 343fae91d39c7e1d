package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"application-intake-go/internal/application"
	"application-intake-go/internal/intake"
	"application-intake-go/internal/logger"

	"github.com/go-playground/form/v4"
)

const multipartMemory = 8 << 20

var decoder = form.NewDecoder()

type submitForm struct {
	Name        string `form:"name"`
	Email       string `form:"email"`
	Phone       string `form:"phone"`
	FormType    string `form:"formType"`
	CoverLetter string `form:"coverLetter"`
}

type submitResponse struct {
	OK             bool   `json:"ok"`
	Message        string `json:"message"`
	ID             string `json:"id,omitempty"`
	Table          string `json:"table,omitempty"`
	Row            int    `json:"row,omitempty"`
	ResumeFilename string `json:"resume_filename,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartMemory)
	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, submitResponse{Message: "Uploaded file is too large."})
			return
		}
		writeJSON(w, http.StatusBadRequest, submitResponse{Message: "Invalid form data."})
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	var f submitForm
	if err := decoder.Decode(&f, r.Form); err != nil {
		logger.Warn("decode submit form failed", "err", err)
		writeJSON(w, http.StatusBadRequest, submitResponse{Message: "Invalid form data."})
		return
	}

	req := intake.Request{
		FormType:    f.FormType,
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		CoverLetter: f.CoverLetter,
	}

	var file multipart.File
	if r.MultipartForm != nil {
		fh, header, err := r.FormFile("resume")
		switch {
		case err == nil:
			file = fh
			req.File = fh
			req.Filename = header.Filename
		case errors.Is(err, http.ErrMissingFile):
		default:
			writeJSON(w, http.StatusBadRequest, submitResponse{Message: "Invalid resume upload."})
			return
		}
	}
	if file != nil {
		defer file.Close()
	}

	rc, err := s.intake.Submit(r.Context(), req)
	if err != nil {
		writeJSON(w, application.StatusCode(err), submitResponse{Message: application.PublicMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		OK:             true,
		Message:        "Application submitted successfully",
		ID:             rc.ID,
		Table:          rc.Table,
		Row:            rc.Row,
		ResumeFilename: rc.ResumeFilename,
	})
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rc, ok, err := s.intake.Receipt(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "receipt not found"})
		return
	}
	writeJSON(w, http.StatusOK, rc)
}
