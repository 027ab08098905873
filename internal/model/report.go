package model

import "time"

// GroupRevenue is the paid revenue of one group in a month.
type GroupRevenue struct {
	GroupID      int64        `json:"group_id"`
	Speciality   Speciality   `json:"speciality"`
	Days         ScheduleDays `json:"days"`
	MentorID     int64        `json:"mentor_id"`
	PaidStudents int          `json:"paid_students"`
	Revenue      int64        `json:"revenue"`
	Split
}

// MentorReport aggregates a mentor's groups for the month.
type MentorReport struct {
	MentorID      int64          `json:"mentor_id"`
	MentorName    string         `json:"mentor_name"`
	MentorEmail   string         `json:"mentor_email"`
	Speciality    *Speciality    `json:"speciality"`
	TotalRevenue  int64          `json:"total_revenue"`
	MentorShare   int64          `json:"mentor_share"`
	DirectorShare int64          `json:"director_share"`
	TotalStudents int            `json:"total_students"`
	IsPaid        bool           `json:"is_paid"`
	PaymentDate   *time.Time     `json:"payment_date"`
	PaidAmount    *int64         `json:"paid_amount"`
	GroupsDetail  []GroupRevenue `json:"groups_detail"`
}

// EmployeeReport is a non-mentor employee and their salary for the month.
type EmployeeReport struct {
	EmployeeID  int64      `json:"employee_id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	SalaryID    *int64     `json:"salary_id"`
	Salary      int64      `json:"salary"`
	IsPaid      bool       `json:"is_paid"`
	PaymentDate *time.Time `json:"payment_date"`
}

// ReportTotals sums the month.
type ReportTotals struct {
	TotalRevenue          int64 `json:"total_revenue"`
	TotalMentorShares     int64 `json:"total_mentor_shares"`
	TotalDirectorShares   int64 `json:"total_director_shares"`
	TotalEmployeeSalaries int64 `json:"total_employee_salaries"`
	DirectorRemaining     int64 `json:"director_remaining"`
	UnassignedRevenue     int64 `json:"unassigned_revenue"`
	PaidInvoices          int   `json:"paid_invoices"`
}

// MonthlyReport is the full monthly financial report.
type MonthlyReport struct {
	Month     Month            `json:"month"`
	Mentors   []MentorReport   `json:"mentors"`
	Employees []EmployeeReport `json:"employees"`
	Totals    ReportTotals     `json:"totals"`
}

// DashboardSummary is the staff landing page overview.
type DashboardSummary struct {
	TotalStudents        int   `json:"total_students"`
	EnrolledStudents     int   `json:"enrolled_students"`
	ActiveGroups         int   `json:"active_groups"`
	PlannedGroups        int   `json:"planned_groups"`
	UnpaidInvoices       int   `json:"unpaid_invoices"`
	UnpaidAmount         int64 `json:"unpaid_amount"`
	RevenueCurrentMonth  int64 `json:"revenue_current_month"`
	PendingPayoutMentors int   `json:"pending_payout_mentors"`
}
