package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// Unique constraint violations on students.
var (
	ErrDuplicateStudentEmail = errors.New("student with this email already exists")
	ErrDuplicatePhone        = errors.New("student with this phone already exists")
	ErrDuplicatePassport     = errors.New("student with this passport already exists")
)

var studentUnique = map[string]error{
	"students_email_key":                  ErrDuplicateStudentEmail,
	"students_phone_key":                  ErrDuplicatePhone,
	"students_passport_serial_number_key": ErrDuplicatePassport,
}

const studentColumns = `s.id, s.email, s.full_name, s.phone, s.passport_serial_number, s.birth_date, s.source,
	s.group_id, s.address, s.inn, s.pinfl, s.is_active, s.password_hash, s.created_at, s.updated_at`

// StudentRepository handles student data access.
type StudentRepository struct {
	db DBTX
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *StudentRepository) WithTx(tx pgx.Tx) *StudentRepository {
	return &StudentRepository{db: tx}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.ID, &s.Email, &s.FullName, &s.Phone, &s.PassportSerialNumber, &s.BirthDate, &s.Source,
		&s.GroupID, &s.Address, &s.INN, &s.PINFL, &s.IsActive, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return s, nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	return scanStudent(r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM students s WHERE s.id = $1`, id))
}

// GetByIDForUpdate locks the student row until the transaction ends.
func (r *StudentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Student, error) {
	return scanStudent(r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM students s WHERE s.id = $1 FOR UPDATE`, id))
}

// GetByEmail retrieves a student by email (case-insensitive).
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	return scanStudent(r.db.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students s WHERE lower(s.email) = lower($1)`, email))
}

// List retrieves students with pagination and optional filters.
func (r *StudentRepository) List(ctx context.Context, f model.StudentFilter) ([]model.Student, int, error) {
	var q filter
	if f.GroupID != nil {
		q.add("s.group_id = %s", *f.GroupID)
	}
	if f.Source != "" {
		q.add("s.source = %s", f.Source)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.add("(s.full_name ILIKE %[1]s OR s.phone ILIKE %[1]s OR s.email ILIKE %[1]s OR s.passport_serial_number ILIKE %[1]s)", "%"+s+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students s`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + studentColumns + ` FROM students s` + q.where() +
		` ORDER BY s.created_at DESC, s.id DESC` + q.page(f.Limit, offset(f.Page, f.Limit))
	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, *s)
	}
	return students, total, rows.Err()
}

// ListByGroup returns every student of a group ordered by name.
func (r *StudentRepository) ListByGroup(ctx context.Context, groupID int64) ([]model.Student, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+studentColumns+` FROM students s WHERE s.group_id = $1 ORDER BY s.full_name, s.id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// CountInGroup returns how many of ids belong to the group.
func (r *StudentRepository) CountInGroup(ctx context.Context, groupID int64, ids []int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE group_id = $1 AND id = ANY($2)`, groupID, ids,
	).Scan(&n)
	return n, err
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO students (email, full_name, phone, passport_serial_number, birth_date, source,
		                       group_id, address, inn, pinfl, is_active, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		s.Email, s.FullName, s.Phone, s.PassportSerialNumber, s.BirthDate, s.Source,
		s.GroupID, s.Address, s.INN, s.PINFL, s.IsActive, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapErr(err, studentUnique)
}

// Update writes the profile columns of s. Group membership is changed only
// through SetGroup.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	err := r.db.QueryRow(ctx,
		`UPDATE students
		 SET email = $1, full_name = $2, phone = $3, passport_serial_number = $4, birth_date = $5,
		     source = $6, address = $7, inn = $8, pinfl = $9, is_active = $10, password_hash = $11,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $12
		 RETURNING updated_at`,
		s.Email, s.FullName, s.Phone, s.PassportSerialNumber, s.BirthDate,
		s.Source, s.Address, s.INN, s.PINFL, s.IsActive, s.PasswordHash, s.ID,
	).Scan(&s.UpdatedAt)
	return mapErr(err, studentUnique)
}

// SetGroup moves a student into groupID, or out of any group when nil.
func (r *StudentRepository) SetGroup(ctx context.Context, studentID int64, groupID *int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE students SET group_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, groupID, studentID)
	if err != nil {
		return mapErr(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a student by ID. Students with invoices cannot be deleted.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
