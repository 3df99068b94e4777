package mocks

import (
	"context"
	"time"

	"github.com/magdyelboushy-stack/platform/domain"
)

// MockLockoutTracker implements domain.LockoutTracker interface for testing
type MockLockoutTracker struct {
	CheckLockedFunc   func(ctx context.Context, key string) (bool, time.Duration, error)
	RecordFailureFunc func(ctx context.Context, key string) (bool, time.Duration, error)
	RecordSuccessFunc func(ctx context.Context, key string) error
}

// NewMockLockoutTracker creates a new MockLockoutTracker with default behaviors
func NewMockLockoutTracker() *MockLockoutTracker {
	return &MockLockoutTracker{}
}

func (m *MockLockoutTracker) CheckLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	if m.CheckLockedFunc != nil {
		return m.CheckLockedFunc(ctx, key)
	}
	return false, 0, nil
}

func (m *MockLockoutTracker) RecordFailure(ctx context.Context, key string) (bool, time.Duration, error) {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, key)
	}
	return false, 0, nil
}

func (m *MockLockoutTracker) RecordSuccess(ctx context.Context, key string) error {
	if m.RecordSuccessFunc != nil {
		return m.RecordSuccessFunc(ctx, key)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.LockoutTracker = (*MockLockoutTracker)(nil)
