package mocks

import (
	"context"

	"github.com/magdyelboushy-stack/platform/domain"
)

// MockIdentityResolver implements domain.IdentityResolver interface for testing
type MockIdentityResolver struct {
	ResolveBearerFunc  func(ctx context.Context, token string) (*domain.Identity, error)
	ResolveSessionFunc func(ctx context.Context, sessionID string) (*domain.Identity, error)
}

// NewMockIdentityResolver creates a new MockIdentityResolver with default behaviors
func NewMockIdentityResolver() *MockIdentityResolver {
	return &MockIdentityResolver{}
}

func (m *MockIdentityResolver) ResolveBearer(ctx context.Context, token string) (*domain.Identity, error) {
	if m.ResolveBearerFunc != nil {
		return m.ResolveBearerFunc(ctx, token)
	}
	return nil, domain.ErrUnauthorized
}

func (m *MockIdentityResolver) ResolveSession(ctx context.Context, sessionID string) (*domain.Identity, error) {
	if m.ResolveSessionFunc != nil {
		return m.ResolveSessionFunc(ctx, sessionID)
	}
	return nil, domain.ErrUnauthorized
}

// Compile-time interface compliance verification
var _ domain.IdentityResolver = (*MockIdentityResolver)(nil)
