package mocks

import (
	"context"

	"github.com/magdyelboushy-stack/platform/domain"
)

// MockFileRepository implements domain.FileRepository interface for testing
type MockFileRepository struct {
	CreateFunc             func(ctx context.Context, file *domain.StoredFile) error
	FindByCategoryNameFunc func(ctx context.Context, category, filename string) (*domain.StoredFile, error)
}

// NewMockFileRepository creates a new MockFileRepository with default behaviors
func NewMockFileRepository() *MockFileRepository {
	return &MockFileRepository{}
}

func (m *MockFileRepository) Create(ctx context.Context, file *domain.StoredFile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, file)
	}
	return nil
}

func (m *MockFileRepository) FindByCategoryName(ctx context.Context, category, filename string) (*domain.StoredFile, error) {
	if m.FindByCategoryNameFunc != nil {
		return m.FindByCategoryNameFunc(ctx, category, filename)
	}
	return nil, domain.ErrFileNotFound
}

// Compile-time interface compliance verification
var _ domain.FileRepository = (*MockFileRepository)(nil)
