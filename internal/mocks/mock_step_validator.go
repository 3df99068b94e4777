package mocks

import (
	"context"

	"github.com/magdyelboushy-stack/platform/domain"
)

// MockStepValidator implements domain.StepValidator interface for testing
type MockStepValidator struct {
	ValidateStepFunc         func(ctx context.Context, step int, data map[string]string) domain.ValidationErrors
	ValidateRegistrationFunc func(ctx context.Context, input *domain.RegistrationInput) domain.ValidationErrors
}

// NewMockStepValidator creates a new MockStepValidator with default behaviors
func NewMockStepValidator() *MockStepValidator {
	return &MockStepValidator{}
}

func (m *MockStepValidator) ValidateStep(ctx context.Context, step int, data map[string]string) domain.ValidationErrors {
	if m.ValidateStepFunc != nil {
		return m.ValidateStepFunc(ctx, step, data)
	}
	return domain.ValidationErrors{}
}

func (m *MockStepValidator) ValidateRegistration(ctx context.Context, input *domain.RegistrationInput) domain.ValidationErrors {
	if m.ValidateRegistrationFunc != nil {
		return m.ValidateRegistrationFunc(ctx, input)
	}
	return domain.ValidationErrors{}
}

// Compile-time interface compliance verification
var _ domain.StepValidator = (*MockStepValidator)(nil)
