package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// ReportRepository runs the aggregate queries behind reports and the dashboard.
type ReportRepository struct {
	db DBTX
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: pool}
}

// GroupRevenueRow is the paid revenue of a group within a period.
type GroupRevenueRow struct {
	GroupID      int64
	Speciality   model.Speciality
	Days         model.ScheduleDays
	MentorID     *int64
	StudentIDs   []int64
	PaidStudents int
	PaidInvoices int
	Revenue      int64
}

// GroupRevenue aggregates paid invoices by group for payments made in [from, to).
// StudentIDs lists the distinct payers and PaidStudents counts them.
func (r *ReportRepository) GroupRevenue(ctx context.Context, from, to time.Time) ([]GroupRevenueRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT g.id, g.speciality, g.days, g.mentor_id,
		        ARRAY_AGG(DISTINCT i.student_id ORDER BY i.student_id), COUNT(*), SUM(i.amount)
		 FROM invoices i
		 JOIN groups g ON g.id = i.group_id
		 WHERE i.status = 'paid' AND i.payment_time >= $1 AND i.payment_time < $2
		 GROUP BY g.id, g.speciality, g.days, g.mentor_id
		 ORDER BY SUM(i.amount) DESC, g.id`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupRevenueRow
	for rows.Next() {
		var row GroupRevenueRow
		if err := rows.Scan(&row.GroupID, &row.Speciality, &row.Days, &row.MentorID,
			&row.StudentIDs, &row.PaidInvoices, &row.Revenue); err != nil {
			return nil, err
		}
		row.PaidStudents = len(row.StudentIDs)
		out = append(out, row)
	}
	return out, rows.Err()
}

// DashboardCounts retrieves the high-level metrics for the staff dashboard.
func (r *ReportRepository) DashboardCounts(ctx context.Context, today model.Date, monthStart, monthEnd time.Time) (*model.DashboardSummary, error) {
	d := &model.DashboardSummary{}
	err := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM students WHERE group_id IS NOT NULL),
			(SELECT COUNT(*) FROM groups WHERE is_active AND (starting_date IS NULL OR starting_date <= $1)),
			(SELECT COUNT(*) FROM groups WHERE starting_date > $1),
			(SELECT COUNT(*) FROM invoices WHERE status IN ('created', 'pending')),
			(SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE status IN ('created', 'pending')),
			(SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE status = 'paid' AND payment_time >= $2 AND payment_time < $3),
			(SELECT COUNT(*) FROM employees e WHERE e.role = 'mentor' AND e.is_active AND NOT EXISTS (
				SELECT 1 FROM mentor_payments p WHERE p.mentor_id = e.id AND p.month = $4 AND p.is_paid))`,
		today, monthStart, monthEnd, model.MonthOf(today),
	).Scan(&d.TotalStudents, &d.EnrolledStudents, &d.ActiveGroups, &d.PlannedGroups,
		&d.UnpaidInvoices, &d.UnpaidAmount, &d.RevenueCurrentMonth, &d.PendingPayoutMentors)
	if err != nil {
		return nil, err
	}
	return d, nil
}
