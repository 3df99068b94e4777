package services

import (
	"errors"
	"testing"

	"github.com/magdyelboushy-stack/platform/internal/mocks"
)

func TestPolicyServiceImpl_AddPolicy(t *testing.T) {
	enforcer := mocks.NewMockCasbinEnforcer()

	var added []interface{}
	saved := false
	enforcer.AddPolicyFunc = func(params ...interface{}) (bool, error) {
		added = params
		return true, nil
	}
	enforcer.SavePolicyFunc = func() error {
		saved = true
		return nil
	}

	svc := NewPolicyServiceWithEnforcer(enforcer)
	if err := svc.AddPolicy("role_teacher", "files/documents", "read"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(added) != 3 || added[0] != "role_teacher" || added[1] != "files/documents" || added[2] != "read" {
		t.Errorf("unexpected policy params: %v", added)
	}
	if !saved {
		t.Error("expected policy to be persisted after add")
	}
}

func TestPolicyServiceImpl_AddPolicy_EnforcerError(t *testing.T) {
	enforcer := mocks.NewMockCasbinEnforcer()
	enforcer.AddPolicyFunc = func(params ...interface{}) (bool, error) {
		return false, errors.New("adapter down")
	}
	enforcer.SavePolicyFunc = func() error {
		t.Error("must not persist after a failed add")
		return nil
	}

	svc := NewPolicyServiceWithEnforcer(enforcer)
	if err := svc.AddPolicy("role_teacher", "files/documents", "read"); err == nil {
		t.Error("expected error from enforcer")
	}
}

func TestPolicyServiceImpl_RemovePolicy(t *testing.T) {
	enforcer := mocks.NewMockCasbinEnforcer()

	saved := false
	enforcer.SavePolicyFunc = func() error {
		saved = true
		return nil
	}

	svc := NewPolicyServiceWithEnforcer(enforcer)
	if err := svc.RemovePolicy("role_assistant", "files/thumbnails", "read"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !saved {
		t.Error("expected policy to be persisted after remove")
	}
}

func TestPolicyServiceImpl_CheckPermission(t *testing.T) {
	enforcer := mocks.NewMockCasbinEnforcer()
	enforcer.EnforceFunc = func(rvals ...interface{}) (bool, error) {
		return rvals[0] == "role_admin", nil
	}

	svc := NewPolicyServiceWithEnforcer(enforcer)

	allowed, err := svc.CheckPermission("role_admin", "files/avatars", "read")
	if err != nil || !allowed {
		t.Errorf("expected admin allowed, got %v, %v", allowed, err)
	}

	allowed, err = svc.CheckPermission("role_student", "files/avatars", "read")
	if err != nil || allowed {
		t.Errorf("expected student denied, got %v, %v", allowed, err)
	}
}

func TestPolicyServiceImpl_GetPolicies(t *testing.T) {
	enforcer := mocks.NewMockCasbinEnforcer()
	enforcer.GetPolicyFunc = func() ([][]string, error) {
		return [][]string{{"role_admin", "files/*", "read"}}, nil
	}

	svc := NewPolicyServiceWithEnforcer(enforcer)
	policies := svc.GetPolicies()
	if len(policies) != 1 || policies[0][0] != "role_admin" {
		t.Errorf("unexpected policies: %v", policies)
	}
}
