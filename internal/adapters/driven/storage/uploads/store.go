// Package uploads stores uploaded CSV files on local disk under
// generated names.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// DefaultDir is the upload directory name under the working directory.
const DefaultDir = "uploads"

// ErrNotCSV is returned for files that are not CSV.
var ErrNotCSV = fmt.Errorf("%w: only CSV files are allowed", domain.ErrInvalidInput)

// Store writes uploads into a single directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. Empty dir uses DefaultDir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// IsCSV reports whether a file with the given name and content type is a CSV.
func IsCSV(name, contentType string) bool {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/csv"
}

// Save copies r into <uuid>.csv and returns the absolute path.
func (s *Store) Save(name, contentType string, r io.Reader) (string, error) {
	if !IsCSV(name, contentType) {
		return "", ErrNotCSV
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	path, err := filepath.Abs(filepath.Join(s.dir, uuid.NewString()+".csv"))
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		return "", errors.Join(fmt.Errorf("writing upload: %w", err), f.Close(), os.Remove(path))
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing upload: %w", err)
	}
	return path, nil
}

// SaveFile copies the file at src into the store.
func (s *Store) SaveFile(src string) (string, error) {
	if !IsCSV(src, "") {
		return "", ErrNotCSV
	}
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, src)
	}
	defer f.Close()
	return s.Save(filepath.Base(src), "", f)
}
