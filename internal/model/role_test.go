package model

import "testing"

func TestCanManage(t *testing.T) {
	tests := []struct {
		actor, target Role
		want          bool
	}{
		{RoleDeveloper, RoleDeveloper, true},
		{RoleDirector, RoleDeveloper, false},
		{RoleDirector, RoleDirector, true},
		{RoleDirector, RoleMentor, true},
		{RoleAdministrator, RoleDirector, false},
		{RoleAdministrator, RoleDeveloper, false},
		{RoleAdministrator, RoleAccountant, true},
		{RoleAccountant, RoleMentor, false},
		{RoleMentor, RoleAssistant, false},
	}
	for _, tt := range tests {
		if got := CanManage(tt.actor, tt.target); got != tt.want {
			t.Errorf("CanManage(%s, %s) = %v, want %v", tt.actor, tt.target, got, tt.want)
		}
	}
}

func TestValidateSpeciality(t *testing.T) {
	revit := SpecialityRevitArchitecture
	bogus := Speciality("autocad")
	empty := Speciality("")

	if !ValidateSpeciality(RoleMentor, &revit) {
		t.Error("mentor with speciality should be valid")
	}
	if ValidateSpeciality(RoleMentor, nil) || ValidateSpeciality(RoleMentor, &bogus) {
		t.Error("mentor needs a known speciality")
	}
	if ValidateSpeciality(RoleAccountant, &revit) {
		t.Error("non-mentor must not carry a speciality")
	}
	if !ValidateSpeciality(RoleAccountant, nil) || !ValidateSpeciality(RoleAccountant, &empty) {
		t.Error("non-mentor without speciality should be valid")
	}
}

func TestRolePermissions(t *testing.T) {
	for _, role := range AllRoles {
		if len(RolePermissions[role]) == 0 {
			t.Errorf("role %s has no permissions", role)
		}
	}
	for _, role := range AllRoles {
		want := role == RoleDirector || role == RoleAccountant
		if got := HasPermission(role, PermissionPayrollWrite); got != want {
			t.Errorf("HasPermission(%s, payroll:write) = %v, want %v", role, got, want)
		}
	}
	if HasPermission(RoleMentor, PermissionInvoicesMarkPaid) {
		t.Error("mentors must not mark invoices paid")
	}
	for _, role := range AllRoles {
		want := role == RoleDeveloper
		if got := HasPermission(role, PermissionSystemRead); got != want {
			t.Errorf("HasPermission(%s, system:read) = %v, want %v", role, got, want)
		}
	}
	if !HasPermission(RoleDeveloper, PermissionEmployeesWrite) {
		t.Error("developers manage employees")
	}
}
