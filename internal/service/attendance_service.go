package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/database"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// ErrNotGroupStudent is returned when a participant is not enrolled in the group.
var ErrNotGroupStudent = errors.New("participant is not a student of this group")

// AttendanceService records which students attended each lesson.
type AttendanceService struct {
	db          database.TxRunner
	attendances *repository.AttendanceRepository
	groups      *repository.GroupRepository
	students    *repository.StudentRepository
	employees   *repository.EmployeeRepository
	cfg         *config.Config
	log         zerolog.Logger
	now         func() time.Time
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(db database.TxRunner, attendances *repository.AttendanceRepository, groups *repository.GroupRepository,
	students *repository.StudentRepository, employees *repository.EmployeeRepository, cfg *config.Config, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		db:          db,
		attendances: attendances,
		groups:      groups,
		students:    students,
		employees:   employees,
		cfg:         cfg,
		log:         logger.Component(log, "attendance_service"),
		now:         time.Now,
	}
}

// List returns a page of registers visible in scope.
func (s *AttendanceService) List(ctx context.Context, f model.AttendanceFilter, scope Scope) ([]model.Attendance, int, error) {
	if scope.MentorID != nil {
		f.MentorID = scope.MentorID
	}
	if f.Limit <= 0 {
		f.Limit = s.cfg.PageSize
	}
	return s.attendances.List(ctx, f)
}

// Get returns one register. Registers of groups outside the scope are
// reported as missing.
func (s *AttendanceService) Get(ctx context.Context, id int64, scope Scope) (*model.Attendance, error) {
	a, err := s.attendances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := s.groups.GetByID(ctx, a.GroupID)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsGroup(g) {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

// Create records a lesson for a group. The date defaults to today.
func (s *AttendanceService) Create(ctx context.Context, req model.CreateAttendanceRequest, scope Scope) (*model.Attendance, error) {
	g, err := s.writableGroup(ctx, req.GroupID, scope)
	if err != nil {
		return nil, err
	}
	if err := s.checkMentor(ctx, g); err != nil {
		return nil, err
	}

	participants := uniqueIDs(req.ParticipantIDs)
	if err := s.checkParticipants(ctx, g.ID, participants); err != nil {
		return nil, err
	}

	a := &model.Attendance{
		GroupID:        g.ID,
		Date:           model.DateIn(s.now(), s.cfg.Location),
		MentorID:       g.MentorID,
		ParticipantIDs: participants,
	}
	if req.Date != nil {
		a.Date = *req.Date
	}

	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		repo := s.attendances.WithTx(tx)
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		return repo.SetParticipants(ctx, a.ID, participants)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("attendance_id", a.ID).Int64("group_id", g.ID).Str("date", a.Date.String()).
		Int("present", len(participants)).Msg("Attendance recorded")
	return a, nil
}

// Update changes the date and/or replaces the participants of a register.
func (s *AttendanceService) Update(ctx context.Context, id int64, req model.UpdateAttendanceRequest, scope Scope) (*model.Attendance, error) {
	a, err := s.attendances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := s.writableGroup(ctx, a.GroupID, scope)
	if err != nil {
		return nil, err
	}

	var participants []int64
	if req.ParticipantIDs != nil {
		participants = uniqueIDs(*req.ParticipantIDs)
		if err := s.checkParticipants(ctx, g.ID, participants); err != nil {
			return nil, err
		}
	}

	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		repo := s.attendances.WithTx(tx)
		if req.Date != nil && !req.Date.Equal(a.Date) {
			if err := repo.UpdateDate(ctx, id, *req.Date); err != nil {
				return err
			}
		}
		if req.ParticipantIDs != nil {
			return repo.SetParticipants(ctx, id, participants)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.attendances.GetByID(ctx, id)
}

// Delete removes a register.
func (s *AttendanceService) Delete(ctx context.Context, id int64, scope Scope) error {
	a, err := s.attendances.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.writableGroup(ctx, a.GroupID, scope); err != nil {
		return err
	}
	return s.attendances.Delete(ctx, id)
}

// writableGroup loads a group the caller may record attendance for.
// Mentors may only write to their own groups.
func (s *AttendanceService) writableGroup(ctx context.Context, groupID int64, scope Scope) (*model.Group, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsGroup(g) {
		return nil, ErrNotYourGroup
	}
	return g, nil
}

// checkMentor requires the group to be taught by an employee with the
// mentor role; that mentor is recorded on the register.
func (s *AttendanceService) checkMentor(ctx context.Context, g *model.Group) error {
	if g.MentorID == nil {
		return ErrNotAMentor
	}
	e, err := s.employees.GetByID(ctx, *g.MentorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotAMentor
		}
		return err
	}
	if e.Role != model.RoleMentor {
		return ErrNotAMentor
	}
	return nil
}

func (s *AttendanceService) checkParticipants(ctx context.Context, groupID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.students.CountInGroup(ctx, groupID, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return ErrNotGroupStudent
	}
	return nil
}

// uniqueIDs returns ids sorted without duplicates.
func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
