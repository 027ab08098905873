package model

import "time"

// Revenue split between the director and the mentor of a group. Small
// groups leave a larger share to the director.
const (
	SplitStudentThreshold = 6

	SmallGroupMentorPercent = 55
	LargeGroupMentorPercent = 60
)

// Split is one group's revenue divided between mentor and director.
type Split struct {
	MentorPercent   int   `json:"mentor_percent"`
	DirectorPercent int   `json:"director_percent"`
	MentorShare     int64 `json:"mentor_share"`
	DirectorShare   int64 `json:"director_share"`
}

// SplitRevenue divides revenue (in tiyin) by the number of distinct paying
// students: up to SplitStudentThreshold students the mentor gets 55%, above
// it 60%. The mentor share is rounded down and the director keeps the
// remainder so the two always add up to revenue.
func SplitRevenue(revenue int64, students int) Split {
	pct := SmallGroupMentorPercent
	if students > SplitStudentThreshold {
		pct = LargeGroupMentorPercent
	}
	mentor := revenue * int64(pct) / 100
	return Split{
		MentorPercent:   pct,
		DirectorPercent: 100 - pct,
		MentorShare:     mentor,
		DirectorShare:   revenue - mentor,
	}
}

// DirectorRemaining is what stays with the director after staff salaries.
func DirectorRemaining(directorShares, salaries int64) int64 {
	if rest := directorShares - salaries; rest > 0 {
		return rest
	}
	return 0
}

// EmployeeSalary is a monthly payout to a non-mentor employee.
type EmployeeSalary struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	EmployeeRole Role       `json:"employee_role"`
	Month        Month      `json:"month"`
	Amount       int64      `json:"amount"`
	IsPaid       bool       `json:"is_paid"`
	PaymentDate  *time.Time `json:"payment_date"`
	Notes        *string    `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MentorPayment is a monthly payout of a mentor's revenue share.
type MentorPayment struct {
	ID          int64      `json:"id"`
	MentorID    int64      `json:"mentor_id"`
	MentorName  string     `json:"mentor_name"`
	Month       Month      `json:"month"`
	Amount      int64      `json:"amount"`
	IsPaid      bool       `json:"is_paid"`
	PaymentDate *time.Time `json:"payment_date"`
	Notes       *string    `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UpsertSalaryRequest sets an employee's salary for a month.
type UpsertSalaryRequest struct {
	EmployeeID int64   `json:"employee_id" binding:"required,min=1"`
	Month      string  `json:"month" binding:"required,month"`
	Amount     int64   `json:"amount" binding:"min=0"`
	Notes      *string `json:"notes" binding:"omitempty,max=1000"`
}

// MarkSalaryPaidRequest toggles the paid flag of a salary row.
type MarkSalaryPaidRequest struct {
	IsPaid *bool `json:"is_paid" binding:"required"`
}

// UpsertMentorPaymentRequest records a mentor payout for a month.
type UpsertMentorPaymentRequest struct {
	MentorID int64   `json:"mentor_id" binding:"required,min=1"`
	Month    string  `json:"month" binding:"required,month"`
	Amount   int64   `json:"amount" binding:"min=0"`
	IsPaid   bool    `json:"is_paid"`
	Notes    *string `json:"notes" binding:"omitempty,max=1000"`
}

// ApplyPaid returns the payment date that goes with a paid flag: marking
// paid keeps an existing date or stamps now, unmarking clears it.
func ApplyPaid(isPaid bool, current *time.Time, now time.Time) *time.Time {
	if !isPaid {
		return nil
	}
	if current != nil {
		return current
	}
	return &now
}
