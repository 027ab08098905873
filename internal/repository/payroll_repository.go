package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// PayrollRepository handles employee salaries and mentor payments.
type PayrollRepository struct {
	db DBTX
}

// NewPayrollRepository creates a new PayrollRepository.
func NewPayrollRepository(pool *pgxpool.Pool) *PayrollRepository {
	return &PayrollRepository{db: pool}
}

const salarySelect = `SELECT s.id, s.employee_id, e.full_name, e.role, s.month, s.amount, s.is_paid,
	s.payment_date, s.notes, s.created_at, s.updated_at
FROM employee_salaries s
JOIN employees e ON e.id = s.employee_id`

func scanSalary(row pgx.Row) (*model.EmployeeSalary, error) {
	s := &model.EmployeeSalary{}
	err := row.Scan(&s.ID, &s.EmployeeID, &s.EmployeeName, &s.EmployeeRole, &s.Month, &s.Amount, &s.IsPaid,
		&s.PaymentDate, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return s, nil
}

// UpsertSalary creates or replaces the salary amount of an employee for a
// month. The paid flag is left as is. created reports whether a new row
// was inserted.
func (r *PayrollRepository) UpsertSalary(ctx context.Context, employeeID int64, month model.Month, amount int64, notes *string) (int64, bool, error) {
	var (
		id      int64
		created bool
	)
	err := r.db.QueryRow(ctx,
		`INSERT INTO employee_salaries (employee_id, month, amount, notes)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (employee_id, month)
		 DO UPDATE SET amount = EXCLUDED.amount, notes = COALESCE(EXCLUDED.notes, employee_salaries.notes),
		               updated_at = CURRENT_TIMESTAMP
		 RETURNING id, (xmax = 0)`,
		employeeID, month, amount, notes,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, mapErr(err, nil)
	}
	return id, created, nil
}

// GetSalary retrieves a salary row by ID.
func (r *PayrollRepository) GetSalary(ctx context.Context, id int64) (*model.EmployeeSalary, error) {
	return scanSalary(r.db.QueryRow(ctx, salarySelect+` WHERE s.id = $1`, id))
}

// SetSalaryPaid stores the paid flag and payment date of a salary row.
func (r *PayrollRepository) SetSalaryPaid(ctx context.Context, id int64, isPaid bool, paymentDate *time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE employee_salaries SET is_paid = $1, payment_date = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		isPaid, paymentDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSalaries returns every salary row of a month.
func (r *PayrollRepository) ListSalaries(ctx context.Context, month model.Month) ([]model.EmployeeSalary, error) {
	rows, err := r.db.Query(ctx, salarySelect+` WHERE s.month = $1 ORDER BY e.full_name, s.id`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	salaries := []model.EmployeeSalary{}
	for rows.Next() {
		s, err := scanSalary(rows)
		if err != nil {
			return nil, err
		}
		salaries = append(salaries, *s)
	}
	return salaries, rows.Err()
}

const mentorPaymentSelect = `SELECT p.id, p.mentor_id, e.full_name, p.month, p.amount, p.is_paid,
	p.payment_date, p.notes, p.created_at, p.updated_at
FROM mentor_payments p
JOIN employees e ON e.id = p.mentor_id`

func scanMentorPayment(row pgx.Row) (*model.MentorPayment, error) {
	p := &model.MentorPayment{}
	err := row.Scan(&p.ID, &p.MentorID, &p.MentorName, &p.Month, &p.Amount, &p.IsPaid,
		&p.PaymentDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return p, nil
}

// UpsertMentorPayment records a mentor payout. Marking paid keeps an
// existing payment date or stamps now; unmarking clears it.
func (r *PayrollRepository) UpsertMentorPayment(ctx context.Context, mentorID int64, month model.Month, amount int64, isPaid bool, notes *string, now time.Time) (int64, bool, error) {
	var (
		id      int64
		created bool
	)
	err := r.db.QueryRow(ctx,
		`INSERT INTO mentor_payments (mentor_id, month, amount, is_paid, payment_date, notes)
		 VALUES ($1, $2, $3, $4, CASE WHEN $4 THEN $5::timestamptz END, $6)
		 ON CONFLICT (mentor_id, month)
		 DO UPDATE SET amount = EXCLUDED.amount,
		               is_paid = EXCLUDED.is_paid,
		               payment_date = CASE WHEN EXCLUDED.is_paid
		                                   THEN COALESCE(mentor_payments.payment_date, EXCLUDED.payment_date)
		                              END,
		               notes = COALESCE(EXCLUDED.notes, mentor_payments.notes),
		               updated_at = CURRENT_TIMESTAMP
		 RETURNING id, (xmax = 0)`,
		mentorID, month, amount, isPaid, now, notes,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, mapErr(err, nil)
	}
	return id, created, nil
}

// GetMentorPayment retrieves a mentor payment by ID.
func (r *PayrollRepository) GetMentorPayment(ctx context.Context, id int64) (*model.MentorPayment, error) {
	return scanMentorPayment(r.db.QueryRow(ctx, mentorPaymentSelect+` WHERE p.id = $1`, id))
}

// ListMentorPayments returns every mentor payment of a month.
func (r *PayrollRepository) ListMentorPayments(ctx context.Context, month model.Month) ([]model.MentorPayment, error) {
	rows, err := r.db.Query(ctx, mentorPaymentSelect+` WHERE p.month = $1 ORDER BY e.full_name, p.id`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []model.MentorPayment{}
	for rows.Next() {
		p, err := scanMentorPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
