package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionEmployeesRead allows viewing employee lists and details.
	PermissionEmployeesRead Permission = "employees:read"

	// PermissionEmployeesWrite allows creating, updating, and deactivating employees.
	PermissionEmployeesWrite Permission = "employees:write"

	// PermissionStudentsRead allows viewing student lists and details.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows creating, updating, and deleting students.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionGroupsRead allows viewing groups. Mentors only see their own.
	PermissionGroupsRead Permission = "groups:read"

	// PermissionGroupsWrite allows creating, updating, and deleting groups.
	PermissionGroupsWrite Permission = "groups:write"

	// PermissionBookingsManage allows booking, cancelling, and moving students on their behalf.
	PermissionBookingsManage Permission = "bookings:manage"

	// PermissionAttendanceRead allows viewing attendance records.
	PermissionAttendanceRead Permission = "attendance:read"

	// PermissionAttendanceWrite allows recording and editing attendance.
	PermissionAttendanceWrite Permission = "attendance:write"

	// PermissionInvoicesRead allows viewing invoices. Mentors only see their groups' invoices.
	PermissionInvoicesRead Permission = "invoices:read"

	// PermissionInvoicesPay allows creating payment links on behalf of students.
	PermissionInvoicesPay Permission = "invoices:pay"

	// PermissionInvoicesMarkPaid allows marking invoices paid by hand.
	PermissionInvoicesMarkPaid Permission = "invoices:mark_paid"

	// PermissionInvoicesCancel allows cancelling unpaid invoices.
	PermissionInvoicesCancel Permission = "invoices:cancel"

	// PermissionReportsRead allows viewing monthly reports and payroll records.
	PermissionReportsRead Permission = "reports:read"

	// PermissionPayrollWrite allows setting salaries and marking payouts paid.
	PermissionPayrollWrite Permission = "payroll:write"

	// PermissionMediaUpload allows uploading an avatar.
	PermissionMediaUpload Permission = "media:upload"

	// PermissionSystemRead allows streaming server and pool metrics.
	PermissionSystemRead Permission = "system:read"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionEmployeesRead,
	PermissionEmployeesWrite,
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionGroupsRead,
	PermissionGroupsWrite,
	PermissionBookingsManage,
	PermissionAttendanceRead,
	PermissionAttendanceWrite,
	PermissionInvoicesRead,
	PermissionInvoicesPay,
	PermissionInvoicesMarkPaid,
	PermissionInvoicesCancel,
	PermissionReportsRead,
	PermissionPayrollWrite,
	PermissionMediaUpload,
	PermissionSystemRead,
}

// everyone is granted to all staff roles.
var everyone = []Permission{
	PermissionStudentsRead,
	PermissionGroupsRead,
	PermissionAttendanceRead,
	PermissionInvoicesRead,
	PermissionMediaUpload,
}

// without returns perms minus the excluded ones.
func without(perms []Permission, excluded ...Permission) []Permission {
	out := make([]Permission, 0, len(perms))
next:
	for _, p := range perms {
		for _, x := range excluded {
			if p == x {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// RolePermissions is the fixed role to permission table. Payouts are marked
// paid only by directors and accountants, so developers get everything else.
var RolePermissions = map[Role][]Permission{
	RoleDeveloper: without(AllPermissions, PermissionPayrollWrite),
	RoleDirector: append(append([]Permission{}, everyone...),
		PermissionEmployeesRead,
		PermissionEmployeesWrite,
		PermissionStudentsWrite,
		PermissionGroupsWrite,
		PermissionBookingsManage,
		PermissionAttendanceWrite,
		PermissionInvoicesPay,
		PermissionInvoicesMarkPaid,
		PermissionInvoicesCancel,
		PermissionReportsRead,
		PermissionPayrollWrite,
	),
	RoleAdministrator: append(append([]Permission{}, everyone...),
		PermissionEmployeesRead,
		PermissionEmployeesWrite,
		PermissionStudentsWrite,
		PermissionGroupsWrite,
		PermissionBookingsManage,
		PermissionAttendanceWrite,
		PermissionInvoicesPay,
		PermissionReportsRead,
	),
	RoleAccountant: append(append([]Permission{}, everyone...),
		PermissionInvoicesPay,
		PermissionInvoicesMarkPaid,
		PermissionInvoicesCancel,
		PermissionReportsRead,
		PermissionPayrollWrite,
	),
	RoleMentor: append(append([]Permission{}, everyone...),
		PermissionBookingsManage,
		PermissionAttendanceWrite,
	),
	RoleSalesAgent: append(append([]Permission{}, everyone...),
		PermissionStudentsWrite,
		PermissionInvoicesPay,
	),
	RoleAssistant: everyone,
}

// PermissionsFor returns the permission codes granted to role.
func PermissionsFor(role Role) []string {
	perms := RolePermissions[role]
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
