package application

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrorKindUnknown      ErrorKind = "unknown"
	ErrorKindValidation   ErrorKind = "validation"
	ErrorKindUpload       ErrorKind = "upload"
	ErrorKindStoreCorrupt ErrorKind = "store_corrupt"
	ErrorKindPersist      ErrorKind = "persist"
)

type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Msg  string
	Err  error
}

func (e Error) Error() string {
	base := e.Msg
	if base == "" && e.Err != nil {
		base = e.Err.Error()
	} else if base != "" && e.Err != nil {
		base = fmt.Sprintf("%s: %v", base, e.Err)
	}
	if base == "" {
		base = string(e.Kind)
	}
	if e.Op != "" && e.Path != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, base)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, base)
	}
	return base
}

func (e Error) Unwrap() error { return e.Err }

func NewValidationError(msg string) error {
	return Error{Kind: ErrorKindValidation, Msg: msg}
}

func NewUploadError(path string, err error) error {
	return Error{Kind: ErrorKindUpload, Op: "store upload", Path: path, Err: err}
}

func NewStoreCorruptError(path string, err error) error {
	return Error{Kind: ErrorKindStoreCorrupt, Op: "load workbook", Path: path, Err: err}
}

func NewPersistError(path string, err error) error {
	return Error{Kind: ErrorKindPersist, Op: "persist workbook", Path: path, Err: err}
}

func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ae Error
	if errors.As(err, &ae) && ae.Kind != "" {
		return ae.Kind
	}
	return ErrorKindUnknown
}

// IsValidation reports whether err is a client side validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == ErrorKindValidation
}

// StatusCode maps an error to the status the transport answers with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case "":
		return http.StatusOK
	case ErrorKindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to the form; only validation messages are
// specific, every other failure collapses to one generic line.
func PublicMessage(err error) string {
	var ae Error
	if errors.As(err, &ae) && ae.Kind == ErrorKindValidation && ae.Msg != "" {
		return ae.Msg
	}
	return "Failed to submit application"
}
