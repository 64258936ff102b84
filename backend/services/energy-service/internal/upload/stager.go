package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Stager writes incoming payloads to a scratch directory before parsing.
type Stager struct {
	dir      string
	maxBytes int64
}

// NewStager returns stager. An empty dir uses the OS temp directory.
func NewStager(dir string, maxBytes int64) *Stager {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	return &Stager{dir: dir, maxBytes: maxBytes}
}

// WithStaged copies r to a temporary file, hands its path to fn and removes the file
// afterwards whatever fn returns. Payloads above the ceiling are rejected before fn runs.
func (s *Stager) WithStaged(r io.Reader, fn func(path string) error) (err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("upload: create staging dir: %w", err)
	}

	path := filepath.Join(s.dir, "upload-"+uuid.NewString()+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("upload: create staged file: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("upload: remove staged file: %w", rmErr)
		}
	}()

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, src)
	if closeErr := f.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return fmt.Errorf("upload: stage payload: %w", copyErr)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		return fmt.Errorf("%w: limit is %s", ErrPayloadTooLarge, humanize.IBytes(uint64(s.maxBytes)))
	}

	return fn(path)
}

// IsCSVName reports whether a file name or content type looks like CSV.
func IsCSVName(filename, contentType string) bool {
	if strings.EqualFold(strings.TrimSpace(contentType), "text/csv") {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}
