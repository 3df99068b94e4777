package mocks

import (
	"context"

	"github.com/magdyelboushy-stack/platform/domain"
)

// MockFileAccessService implements domain.FileAccessService interface for testing
type MockFileAccessService struct {
	AuthorizeFunc func(ctx context.Context, identity *domain.Identity, category, filename string) (*domain.FileContent, error)
}

// NewMockFileAccessService creates a new MockFileAccessService with default behaviors
func NewMockFileAccessService() *MockFileAccessService {
	return &MockFileAccessService{}
}

func (m *MockFileAccessService) Authorize(ctx context.Context, identity *domain.Identity, category, filename string) (*domain.FileContent, error) {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, identity, category, filename)
	}
	return nil, domain.ErrFileNotFound
}

// Compile-time interface compliance verification
var _ domain.FileAccessService = (*MockFileAccessService)(nil)
