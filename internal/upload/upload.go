// Package upload stores application attachments under time stamped names.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"application-intake-go/internal/application"
	"application-intake-go/internal/logger"
)

const (
	timestampLayout = "20060102150405"
	maxSuffix       = 100
)

// Replicator copies a stored upload somewhere else once it is on disk and
// drops that copy again when the upload is discarded.
type Replicator interface {
	Replicate(ctx context.Context, name, path string) error
	Remove(ctx context.Context, name string) error
}

type StoredFile struct {
	OriginalName string `json:"original_name"`
	AssignedName string `json:"assigned_name"`
	Path         string `json:"-"`
	Size         int64  `json:"size"`
}

type Handler struct {
	Dir        string
	Now        func() time.Time
	Replicator Replicator
}

func NewHandler(dir string) *Handler {
	return &Handler{Dir: dir, Now: time.Now}
}

// SplitName splits the final path element of name into basename and
// extension. The extension starts at the last dot; a leading dot does not
// count, so ".profile" has none.
func SplitName(name string) (base, ext string) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "upload", ""
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i], name[i:]
	}
	return name, ""
}

// AssignName builds "{basename}_{YYYYMMDDHHMMSS}{ext}" from the wall clock
// reading at.
func AssignName(originalName string, at time.Time) string {
	base, ext := SplitName(originalName)
	return base + "_" + at.Format(timestampLayout) + ext
}

// Store writes r into the upload directory. The directory must already
// exist. A same-second upload of an identically named file gets a numeric
// suffix instead of overwriting the earlier one.
func (h *Handler) Store(ctx context.Context, r io.Reader, originalName string) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	assigned := AssignName(originalName, now())
	f, name, err := h.create(assigned)
	if err != nil {
		return StoredFile{}, application.NewUploadError(filepath.Join(h.Dir, assigned), err)
	}
	path := f.Name()

	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, application.NewUploadError(path, err)
	}

	if h.Replicator != nil {
		if err := h.Replicator.Replicate(ctx, name, path); err != nil {
			_ = os.Remove(path)
			return StoredFile{}, application.NewUploadError(path, err)
		}
	}

	logger.Info("upload stored", "original_name", originalName, "assigned_name", name, "size", n)
	return StoredFile{OriginalName: originalName, AssignedName: name, Path: path, Size: n}, nil
}

// Remove discards a file returned by Store, including its replicated copy.
func (h *Handler) Remove(ctx context.Context, sf StoredFile) error {
	var errs []error
	if err := os.Remove(sf.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	if h.Replicator != nil {
		if err := h.Replicator.Remove(ctx, sf.AssignedName); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return application.NewUploadError(sf.Path, err)
	}
	logger.Info("upload removed", "assigned_name", sf.AssignedName)
	return nil
}

func (h *Handler) create(assigned string) (*os.File, string, error) {
	base, ext := SplitName(assigned)
	name := assigned
	for i := 2; ; i++ {
		f, err := os.OpenFile(filepath.Join(h.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			if name != assigned {
				logger.Warn("upload name collision", "assigned_name", assigned, "stored_as", name)
			}
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
		if i > maxSuffix {
			return nil, "", fmt.Errorf("no free name for %s after %d attempts", assigned, maxSuffix)
		}
		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}
