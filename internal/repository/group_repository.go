package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimuz/bimuz-backend/internal/model"
)

const groupSelect = `SELECT g.id, g.speciality, g.days, g.lesson_time, g.starting_date, g.is_active, g.seats, g.price,
	g.total_lessons, g.mentor_id, e.full_name,
	(SELECT COUNT(*) FROM students s WHERE s.group_id = g.id),
	(SELECT COUNT(*) FROM attendances a WHERE a.group_id = g.id),
	g.created_at, g.updated_at
FROM groups g
LEFT JOIN employees e ON e.id = g.mentor_id`

// GroupRepository handles group data access.
type GroupRepository struct {
	db DBTX
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *GroupRepository) WithTx(tx pgx.Tx) *GroupRepository {
	return &GroupRepository{db: tx}
}

func scanGroup(row pgx.Row) (*model.Group, error) {
	g := &model.Group{}
	err := row.Scan(&g.ID, &g.Speciality, &g.Days, &g.LessonTime, &g.StartingDate, &g.IsActive, &g.Seats, &g.Price,
		&g.TotalLessons, &g.MentorID, &g.MentorName, &g.StudentsCount, &g.LessonsConducted, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return g, nil
}

// GetByID retrieves a group by ID with its live student count.
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	return scanGroup(r.db.QueryRow(ctx, groupSelect+` WHERE g.id = $1`, id))
}

// GetByIDForUpdate locks the group row so seat checks and enrolments serialize.
func (r *GroupRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Group, error) {
	return scanGroup(r.db.QueryRow(ctx, groupSelect+` WHERE g.id = $1 FOR UPDATE OF g`, id))
}

func groupFilter(f model.GroupFilter) *filter {
	q := &filter{}
	if f.Speciality != "" {
		q.add("g.speciality = %s", f.Speciality)
	}
	if f.IsActive != nil {
		q.add("g.is_active = %s", *f.IsActive)
	}
	if f.MentorID != nil {
		q.add("g.mentor_id = %s", *f.MentorID)
	}
	if f.ExcludeID != 0 {
		q.add("g.id <> %s", f.ExcludeID)
	}
	if f.Bookable {
		q.addRaw("g.is_active")
		q.add(fmt.Sprintf("(g.starting_date IS NULL OR g.starting_date > %%s::date - %d)", model.BookingWindowDays), f.Today)
		q.addRaw("g.seats > (SELECT COUNT(*) FROM students s WHERE s.group_id = g.id)")
	}
	return q
}

// List retrieves groups matching the filter. Bookable listings put the
// soonest start first; other listings are newest first.
func (r *GroupRepository) List(ctx context.Context, f model.GroupFilter) ([]model.Group, int, error) {
	q := groupFilter(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM groups g`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY g.created_at DESC, g.id DESC`
	if f.Bookable {
		order = ` ORDER BY g.starting_date ASC NULLS LAST, g.id ASC`
	}
	rows, err := r.db.Query(ctx, groupSelect+q.where()+order+q.page(f.Limit, offset(f.Page, f.Limit)), q.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		groups = append(groups, *g)
	}
	return groups, total, rows.Err()
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO groups (speciality, days, lesson_time, starting_date, is_active, seats, price, total_lessons, mentor_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		g.Speciality, g.Days, g.LessonTime, g.StartingDate, g.IsActive, g.Seats, g.Price, g.TotalLessons, g.MentorID,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	return mapErr(err, nil)
}

// Update writes every mutable column of g.
func (r *GroupRepository) Update(ctx context.Context, g *model.Group) error {
	err := r.db.QueryRow(ctx,
		`UPDATE groups
		 SET speciality = $1, days = $2, lesson_time = $3, starting_date = $4, is_active = $5, seats = $6,
		     price = $7, total_lessons = $8, mentor_id = $9, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $10
		 RETURNING updated_at`,
		g.Speciality, g.Days, g.LessonTime, g.StartingDate, g.IsActive, g.Seats,
		g.Price, g.TotalLessons, g.MentorID, g.ID,
	).Scan(&g.UpdatedAt)
	return mapErr(err, nil)
}

// Delete removes a group. Groups with invoices cannot be deleted.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivateStarted flags every inactive group whose start date has arrived.
func (r *GroupRepository) ActivateStarted(ctx context.Context, today model.Date) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE groups SET is_active = TRUE, updated_at = CURRENT_TIMESTAMP
		 WHERE NOT is_active AND starting_date IS NOT NULL AND starting_date <= $1`, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IsMentorOf reports whether mentorID teaches groupID.
func (r *GroupRepository) IsMentorOf(ctx context.Context, groupID, mentorID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1 AND mentor_id = $2)`, groupID, mentorID,
	).Scan(&ok)
	return ok, err
}
