package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrAccountInactive    ErrCode = "ACCOUNT_INACTIVE"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrRefreshRevoked     ErrCode = "REFRESH_REVOKED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrPermissionDenied   ErrCode = "PERMISSION_DENIED"
	ErrStudentAccessOnly  ErrCode = "STUDENT_ACCESS_ONLY"
	ErrEmployeeAccessOnly ErrCode = "EMPLOYEE_ACCESS_ONLY"
	ErrRoleHierarchy      ErrCode = "ROLE_HIERARCHY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidID        ErrCode = "INVALID_ID"
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"
	ErrInvalidMonth     ErrCode = "INVALID_MONTH"
	ErrInvalidSpecialty ErrCode = "INVALID_SPECIALITY"
	ErrPasswordMismatch ErrCode = "PASSWORD_MISMATCH"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"
	ErrSelfDeactivation ErrCode = "SELF_DEACTIVATION"

	// ─── Groups & bookings ─────────────────────────────────────────────
	ErrNotAMentor       ErrCode = "NOT_A_MENTOR"
	ErrAlreadyBooked    ErrCode = "ALREADY_BOOKED"
	ErrGroupFull        ErrCode = "GROUP_FULL"
	ErrBookingClosed    ErrCode = "BOOKING_CLOSED"
	ErrNoBooking        ErrCode = "NO_BOOKING"
	ErrGroupStarted     ErrCode = "GROUP_ALREADY_STARTED"
	ErrSameGroup        ErrCode = "SAME_GROUP"
	ErrNotGroupStudent  ErrCode = "NOT_GROUP_STUDENT"
	ErrAttendanceExists ErrCode = "ATTENDANCE_EXISTS"
	ErrNotYourGroup     ErrCode = "NOT_YOUR_GROUP"
	ErrSeatsBelowCount  ErrCode = "SEATS_BELOW_ENROLLED"

	// ─── Invoices & payroll ────────────────────────────────────────────
	ErrInvoicePaid       ErrCode = "INVOICE_ALREADY_PAID"
	ErrInvoiceCancelled  ErrCode = "INVOICE_CANCELLED"
	ErrInvalidTransition ErrCode = "INVALID_STATUS_TRANSITION"
	ErrNoGatewayInvoice  ErrCode = "NO_GATEWAY_INVOICE"
	ErrGateway           ErrCode = "PAYMENT_GATEWAY_ERROR"
	ErrNothingToPay      ErrCode = "NOTHING_TO_PAY"
	ErrMentorSalary      ErrCode = "MENTOR_SALARY_NOT_ALLOWED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrAccountInactive:
		return "This account has been deactivated."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."
	case ErrRefreshRevoked:
		return "Refresh token has been revoked or already used."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrPermissionDenied:
		return "You do not have permission to perform this action."
	case ErrStudentAccessOnly:
		return "This endpoint is available to students only."
	case ErrEmployeeAccessOnly:
		return "This endpoint is available to employees only."
	case ErrRoleHierarchy:
		return "Your role cannot manage this employee or assign this role."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Malformed request body."
	case ErrInvalidMonth:
		return "Month must use the YYYY-MM format."
	case ErrInvalidSpecialty:
		return "Mentors require a speciality and other roles must not have one."
	case ErrPasswordMismatch:
		return "Passwords do not match."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "Resource is still referenced by other records."
	case ErrActionForbidden:
		return "This action is not allowed in the current state."
	case ErrSelfDeactivation:
		return "You cannot deactivate your own account."

	// ─── Groups & bookings ─────────────────────────────────────────────
	case ErrNotAMentor:
		return "The selected employee is not a mentor with a matching speciality."
	case ErrAlreadyBooked:
		return "The student is already enrolled in a group."
	case ErrGroupFull:
		return "The group has no available seats."
	case ErrBookingClosed:
		return "The booking window for this group has closed."
	case ErrNoBooking:
		return "The student is not enrolled in any group."
	case ErrGroupStarted:
		return "The group has already started."
	case ErrSameGroup:
		return "The student is already in this group."
	case ErrNotGroupStudent:
		return "One or more participants are not students of this group."
	case ErrAttendanceExists:
		return "Attendance for this group and date already exists."
	case ErrNotYourGroup:
		return "Mentors can only manage their own groups."
	case ErrSeatsBelowCount:
		return "Seats cannot be fewer than the students already enrolled."

	// ─── Invoices & payroll ────────────────────────────────────────────
	case ErrInvoicePaid:
		return "Invoice is already paid."
	case ErrInvoiceCancelled:
		return "Invoice is cancelled."
	case ErrInvalidTransition:
		return "The invoice cannot move to the requested status."
	case ErrNoGatewayInvoice:
		return "The invoice has no payment link yet."
	case ErrGateway:
		return "The payment gateway rejected the request."
	case ErrNothingToPay:
		return "The invoice has no amount to pay."
	case ErrMentorSalary:
		return "Mentors are paid through mentor payments, not salaries."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File exceeds the maximum upload size."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."

	default:
		return "An unknown error occurred."
	}
}
