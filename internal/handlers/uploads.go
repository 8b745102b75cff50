package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
)

// UploadConfig controls where multipart uploads are staged before they are
// handed to the media host.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

const multipartMemory = 32 << 20

// stagedFiles maps form field names to local temporary copies of the
// uploaded files.
type stagedFiles map[string]string

// Cleanup removes every staged file.
func (s stagedFiles) Cleanup(r *http.Request) {
	for field, path := range s {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(r.Context()).Warn("remove staged upload", slog.String("field", field), slog.Any("error", err))
		}
	}
}

// stageUploads parses the request form and copies the named file fields to
// temporary files. Missing fields are simply absent from the result; the
// caller decides which are required. Non-multipart forms are accepted and
// yield no files.
func stageUploads(w http.ResponseWriter, r *http.Request, cfg UploadConfig, fields ...string) (stagedFiles, error) {
	if cfg.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, apperrors.InvalidArgument("upload exceeds the maximum allowed size")
			}
			return nil, apperrors.InvalidArgument("invalid multipart form")
		}
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.InvalidArgument("invalid form")
		}
		return stagedFiles{}, nil
	}

	staged := stagedFiles{}
	for _, field := range fields {
		path, err := stageFile(r, cfg.Dir, field)
		if err != nil {
			staged.Cleanup(r)
			return nil, err
		}
		if path != "" {
			staged[field] = path
		}
	}
	return staged, nil
}

func stageFile(r *http.Request, dir, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperrors.InvalidArgument(fmt.Sprintf("invalid %s upload", field))
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", apperrors.Internal("could not stage upload", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", apperrors.Internal("could not stage upload", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", apperrors.Internal("could not stage upload", err)
	}
	return tmp.Name(), nil
}
