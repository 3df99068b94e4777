package mocks

import (
	"bytes"
	"io"

	"github.com/magdyelboushy-stack/platform/domain"
)

// MockBlobStore implements domain.BlobStore interface for testing
type MockBlobStore struct {
	SaveFunc func(category, filename string, data []byte) error
	OpenFunc func(category, filename string) (io.ReadCloser, int64, error)
}

// NewMockBlobStore creates a new MockBlobStore with default behaviors
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{}
}

func (m *MockBlobStore) Save(category, filename string, data []byte) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(category, filename, data)
	}
	return nil
}

func (m *MockBlobStore) Open(category, filename string) (io.ReadCloser, int64, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(category, filename)
	}
	return io.NopCloser(bytes.NewReader(nil)), 0, nil
}

// Compile-time interface compliance verification
var _ domain.BlobStore = (*MockBlobStore)(nil)
