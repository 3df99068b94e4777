package mocks

import (
	"context"

	"github.com/magdyelboushy-stack/platform/domain"
)

// MockCsrfRepository implements domain.CsrfTokenRepository interface for testing
type MockCsrfRepository struct {
	IssueFunc    func(ctx context.Context, bindingID string) (*domain.CsrfToken, error)
	ValidateFunc func(ctx context.Context, bindingID, token string) (bool, error)
}

// NewMockCsrfRepository creates a new MockCsrfRepository with default behaviors
func NewMockCsrfRepository() *MockCsrfRepository {
	return &MockCsrfRepository{}
}

func (m *MockCsrfRepository) Issue(ctx context.Context, bindingID string) (*domain.CsrfToken, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, bindingID)
	}
	return &domain.CsrfToken{BindingID: bindingID, Value: "mock-token"}, nil
}

func (m *MockCsrfRepository) Validate(ctx context.Context, bindingID, token string) (bool, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, bindingID, token)
	}
	return true, nil
}

// Compile-time interface compliance verification
var _ domain.CsrfTokenRepository = (*MockCsrfRepository)(nil)
