package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/magdyelboushy-stack/platform/domain"
)

// LocalStore implements domain.BlobStore on the local filesystem. Files
// live under root/<category>/<filename>. Filenames are reduced to their
// base name and the resolved path must stay under the root.
type LocalStore struct {
	root string
}

// NewLocalStore creates a blob store rooted at the given directory.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Save implements domain.BlobStore
func (s *LocalStore) Save(category, filename string, data []byte) error {
	path, err := s.resolve(category, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create category dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Open implements domain.BlobStore
func (s *LocalStore) Open(category, filename string) (io.ReadCloser, int64, error) {
	path, err := s.resolve(category, filename)
	if err != nil {
		return nil, 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, domain.ErrFileNotFound
		}
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// MimeType guesses the content type from the file extension, falling
// back to a generic binary type.
func MimeType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (s *LocalStore) resolve(category, filename string) (string, error) {
	clean := filepath.Base(filename)
	if clean == "." || clean == ".." || clean == string(filepath.Separator) {
		return "", domain.ErrFileNotFound
	}
	path := filepath.Join(s.root, category, clean)
	// Traversal guard: the joined path must remain under the root.
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", domain.ErrForbidden
	}
	return path, nil
}

var _ domain.BlobStore = (*LocalStore)(nil)
