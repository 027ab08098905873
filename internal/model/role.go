package model

// Role is a fixed staff role. Roles are not stored in their own table;
// each employee row carries one of these values.
type Role string

const (
	RoleDeveloper     Role = "developer"
	RoleDirector      Role = "director"
	RoleAdministrator Role = "administrator"
	RoleAccountant    Role = "accountant"
	RoleMentor        Role = "mentor"
	RoleSalesAgent    Role = "sales_agent"
	RoleAssistant     Role = "assistant"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{
	RoleDeveloper,
	RoleDirector,
	RoleAdministrator,
	RoleAccountant,
	RoleMentor,
	RoleSalesAgent,
	RoleAssistant,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Speciality is the software track a mentor teaches and a group follows.
type Speciality string

const (
	SpecialityRevitArchitecture Speciality = "revit_architecture"
	SpecialityRevitStructure    Speciality = "revit_structure"
	SpecialityTeklaStructure    Speciality = "tekla_structure"
)

// AllSpecialities lists every speciality.
var AllSpecialities = []Speciality{
	SpecialityRevitArchitecture,
	SpecialityRevitStructure,
	SpecialityTeklaStructure,
}

// Valid reports whether s is a known speciality.
func (s Speciality) Valid() bool {
	for _, known := range AllSpecialities {
		if s == known {
			return true
		}
	}
	return false
}

// ValidateSpeciality enforces that mentors carry a speciality and every
// other role carries none.
func ValidateSpeciality(role Role, speciality *Speciality) bool {
	if role == RoleMentor {
		return speciality != nil && speciality.Valid()
	}
	return speciality == nil || *speciality == ""
}

// CanManage reports whether an employee with role actor may edit or
// deactivate an employee holding role target. Administrators cannot touch
// directors or developers and directors cannot touch developers.
func CanManage(actor, target Role) bool {
	switch actor {
	case RoleDeveloper:
		return true
	case RoleDirector:
		return target != RoleDeveloper
	case RoleAdministrator:
		return target != RoleDeveloper && target != RoleDirector
	default:
		return false
	}
}

// CanAssign reports whether actor may give role to an employee. The rule
// mirrors CanManage so nobody can promote someone above their own reach.
func CanAssign(actor, role Role) bool {
	return CanManage(actor, role)
}

// RoleWithPermissions describes a role and the permissions it grants.
type RoleWithPermissions struct {
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}
