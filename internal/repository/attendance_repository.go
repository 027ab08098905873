package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// ErrDuplicateAttendance is returned when a group already has a register for the date.
var ErrDuplicateAttendance = errors.New("attendance for this group and date already exists")

var attendanceUnique = map[string]error{
	"attendances_group_id_date_key": ErrDuplicateAttendance,
}

const attendanceSelect = `SELECT a.id, a.group_id, a.date, a.mentor_id,
	COALESCE((SELECT array_agg(p.student_id ORDER BY p.student_id) FROM attendance_participants p WHERE p.attendance_id = a.id), '{}'),
	a.created_at, a.updated_at
FROM attendances a
JOIN groups g ON g.id = a.group_id`

// AttendanceRepository handles attendance data access.
type AttendanceRepository struct {
	db DBTX
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *AttendanceRepository) WithTx(tx pgx.Tx) *AttendanceRepository {
	return &AttendanceRepository{db: tx}
}

func scanAttendance(row pgx.Row) (*model.Attendance, error) {
	a := &model.Attendance{}
	err := row.Scan(&a.ID, &a.GroupID, &a.Date, &a.MentorID, &a.ParticipantIDs, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return a, nil
}

// GetByID retrieves an attendance register by ID.
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*model.Attendance, error) {
	return scanAttendance(r.db.QueryRow(ctx, attendanceSelect+` WHERE a.id = $1`, id))
}

// List retrieves registers matching the filter, latest lessons first.
func (r *AttendanceRepository) List(ctx context.Context, f model.AttendanceFilter) ([]model.Attendance, int, error) {
	var q filter
	if f.GroupID != nil {
		q.add("a.group_id = %s", *f.GroupID)
	}
	if f.MentorID != nil {
		q.add("g.mentor_id = %s", *f.MentorID)
	}
	if f.Date != nil {
		q.add("a.date = %s", *f.Date)
	}

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendances a JOIN groups g ON g.id = a.group_id`+q.where(), q.args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		attendanceSelect+q.where()+` ORDER BY a.date DESC, a.id DESC`+q.page(f.Limit, offset(f.Page, f.Limit)), q.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := []model.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *a)
	}
	return records, total, rows.Err()
}

// Create inserts the register row. Participants are written by SetParticipants.
func (r *AttendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO attendances (group_id, date, mentor_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		a.GroupID, a.Date, a.MentorID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return mapErr(err, attendanceUnique)
}

// UpdateDate moves a register to another date.
func (r *AttendanceRepository) UpdateDate(ctx context.Context, id int64, date model.Date) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE attendances SET date = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, date, id)
	if err != nil {
		return mapErr(err, attendanceUnique)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetParticipants replaces the participant list of a register.
func (r *AttendanceRepository) SetParticipants(ctx context.Context, attendanceID int64, studentIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM attendance_participants WHERE attendance_id = $1`, attendanceID); err != nil {
		return err
	}
	if len(studentIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO attendance_participants (attendance_id, student_id)
		 SELECT $1, unnest($2::bigint[])
		 ON CONFLICT DO NOTHING`,
		attendanceID, studentIDs)
	return mapErr(err, nil)
}

// Delete removes a register and its participants.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
