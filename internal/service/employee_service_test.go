package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/model"
)

func TestEmployeeCreateChecksHierarchy(t *testing.T) {
	s := NewEmployeeService(nil, newTestAuth("secret"), nil, nil, zerolog.Nop())
	revit := model.SpecialityRevitStructure
	ctx := context.Background()

	_, err := s.Create(ctx, model.RoleAdministrator, model.CreateEmployeeRequest{Role: model.RoleDirector})
	if !errors.Is(err, ErrRoleHierarchy) {
		t.Errorf("administrator creating director: %v", err)
	}
	_, err = s.Create(ctx, model.RoleDirector, model.CreateEmployeeRequest{Role: model.RoleMentor})
	if !errors.Is(err, ErrInvalidSpeciality) {
		t.Errorf("mentor without speciality: %v", err)
	}
	_, err = s.Create(ctx, model.RoleDirector, model.CreateEmployeeRequest{Role: model.RoleAccountant, Speciality: &revit})
	if !errors.Is(err, ErrInvalidSpeciality) {
		t.Errorf("accountant with speciality: %v", err)
	}
}

func TestEmployeeRoles(t *testing.T) {
	s := NewEmployeeService(nil, nil, nil, nil, zerolog.Nop())
	roles := s.Roles()
	if len(roles) != len(model.AllRoles) {
		t.Fatalf("Roles() = %d entries", len(roles))
	}
	for _, r := range roles {
		if len(r.Permissions) == 0 {
			t.Errorf("role %s lists no permissions", r.Role)
		}
	}
}

func TestSessionsInvalidated(t *testing.T) {
	active := model.Employee{Role: model.RoleDirector, IsActive: true}

	demoted := active
	demoted.Role = model.RoleAdministrator
	deactivated := active
	deactivated.IsActive = false
	renamed := active
	renamed.FullName = "New Name"
	reactivated := deactivated
	reactivated.IsActive = true

	tests := []struct {
		name          string
		before, after model.Employee
		want          bool
	}{
		{"role change", active, demoted, true},
		{"deactivation", active, deactivated, true},
		{"profile edit", active, renamed, false},
		{"reactivation", deactivated, reactivated, false},
	}
	for _, tt := range tests {
		if got := sessionsInvalidated(&tt.before, &tt.after); got != tt.want {
			t.Errorf("%s: sessionsInvalidated = %v, want %v", tt.name, got, tt.want)
		}
	}
}
