package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// ErrDuplicateEmployeeEmail is returned when the email is already registered.
var ErrDuplicateEmployeeEmail = errors.New("employee with this email already exists")

var employeeUnique = map[string]error{
	"employees_email_key": ErrDuplicateEmployeeEmail,
}

const employeeColumns = `id, email, full_name, role, speciality, professionality, avatar, is_active, password_hash, created_at, updated_at`

// EmployeeRepository handles employee data access.
type EmployeeRepository struct {
	db DBTX
}

// NewEmployeeRepository creates a new EmployeeRepository.
func NewEmployeeRepository(pool *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *EmployeeRepository) WithTx(tx pgx.Tx) *EmployeeRepository {
	return &EmployeeRepository{db: tx}
}

func scanEmployee(row pgx.Row) (*model.Employee, error) {
	e := &model.Employee{}
	err := row.Scan(&e.ID, &e.Email, &e.FullName, &e.Role, &e.Speciality, &e.Professionality,
		&e.Avatar, &e.IsActive, &e.PasswordHash, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}

// GetByID retrieves an employee by ID.
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*model.Employee, error) {
	return scanEmployee(r.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
}

// GetByEmail retrieves an employee by their unique email (case-insensitive).
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*model.Employee, error) {
	return scanEmployee(r.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE lower(email) = lower($1)`, email))
}

// List retrieves employees matching the filter, newest first.
func (r *EmployeeRepository) List(ctx context.Context, f model.EmployeeFilter) ([]model.Employee, int, error) {
	var q filter
	if f.Role != "" {
		q.add("role = %s", f.Role)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.add("(full_name ILIKE %[1]s OR email ILIKE %[1]s)", "%"+s+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + q.where() +
		` ORDER BY created_at DESC, id DESC` + q.page(f.Limit, offset(f.Page, f.Limit))
	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	employees := []model.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, *e)
	}
	return employees, total, rows.Err()
}

// ListByRole returns every active employee with role, ordered by name.
func (r *EmployeeRepository) ListByRole(ctx context.Context, role model.Role) ([]model.Employee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE role = $1 AND is_active ORDER BY full_name, id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// ListExcludingRole returns every active employee whose role differs from role.
func (r *EmployeeRepository) ListExcludingRole(ctx context.Context, role model.Role) ([]model.Employee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE role <> $1 AND is_active ORDER BY full_name, id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// Create inserts a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO employees (email, full_name, role, speciality, professionality, avatar, is_active, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.Email, e.FullName, e.Role, e.Speciality, e.Professionality, e.Avatar, e.IsActive, e.PasswordHash,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapErr(err, employeeUnique)
}

// Update writes every mutable column of e.
func (r *EmployeeRepository) Update(ctx context.Context, e *model.Employee) error {
	err := r.db.QueryRow(ctx,
		`UPDATE employees
		 SET full_name = $1, role = $2, speciality = $3, professionality = $4, avatar = $5,
		     is_active = $6, password_hash = $7, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $8
		 RETURNING updated_at`,
		e.FullName, e.Role, e.Speciality, e.Professionality, e.Avatar, e.IsActive, e.PasswordHash, e.ID,
	).Scan(&e.UpdatedAt)
	return mapErr(err, nil)
}

// SetAvatar stores the avatar URL of an employee.
func (r *EmployeeRepository) SetAvatar(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE employees SET avatar = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveByRole counts active employees with role.
func (r *EmployeeRepository) CountActiveByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE role = $1 AND is_active`, role).Scan(&n)
	return n, err
}
