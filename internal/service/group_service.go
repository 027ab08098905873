package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/database"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// Sentinel errors for groups.
var (
	ErrNotAMentor         = errors.New("employee is not an active mentor of this speciality")
	ErrSeatsBelowEnrolled = errors.New("seats cannot be fewer than enrolled students")
)

// GroupService handles course groups.
type GroupService struct {
	db        database.TxRunner
	groups    *repository.GroupRepository
	employees *repository.EmployeeRepository
	students  *repository.StudentRepository
	invoices  *repository.InvoiceRepository
	cfg       *config.Config
	log       zerolog.Logger
	now       func() time.Time
}

// NewGroupService creates a new GroupService.
func NewGroupService(db database.TxRunner, groups *repository.GroupRepository, employees *repository.EmployeeRepository,
	students *repository.StudentRepository, invoices *repository.InvoiceRepository, cfg *config.Config, log zerolog.Logger) *GroupService {
	return &GroupService{
		db:        db,
		groups:    groups,
		employees: employees,
		students:  students,
		invoices:  invoices,
		cfg:       cfg,
		log:       logger.Component(log, "group_service"),
		now:       time.Now,
	}
}

// Today is the current date in the school's time zone.
func (s *GroupService) Today() model.Date {
	return model.DateIn(s.now(), s.cfg.Location)
}

func (s *GroupService) views(groups []model.Group) []model.GroupView {
	today := s.Today()
	out := make([]model.GroupView, len(groups))
	for i, g := range groups {
		out[i] = g.View(today)
	}
	return out
}

// List returns a page of groups visible in scope.
func (s *GroupService) List(ctx context.Context, f model.GroupFilter, scope Scope) ([]model.GroupView, int, error) {
	if scope.MentorID != nil {
		f.MentorID = scope.MentorID
	}
	if f.Limit <= 0 {
		f.Limit = s.cfg.PageSize
	}
	groups, total, err := s.groups.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return s.views(groups), total, nil
}

// Bookable lists groups a student could join today.
func (s *GroupService) Bookable(ctx context.Context, speciality model.Speciality, page, limit int) ([]model.GroupView, int, error) {
	return s.List(ctx, model.GroupFilter{
		Speciality: speciality,
		Bookable:   true,
		Today:      s.Today(),
		Page:       page,
		Limit:      limit,
	}, Scope{})
}

// Get returns one group. Groups outside the scope are reported as missing.
func (s *GroupService) Get(ctx context.Context, id int64, scope Scope) (*model.GroupView, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsGroup(g) {
		return nil, repository.ErrNotFound
	}
	v := g.View(s.Today())
	return &v, nil
}

// Students lists the students enrolled in a group.
func (s *GroupService) Students(ctx context.Context, id int64, scope Scope) ([]model.Student, error) {
	if _, err := s.Get(ctx, id, scope); err != nil {
		return nil, err
	}
	return s.students.ListByGroup(ctx, id)
}

// Create adds a group. Groups are active unless created inactive, and a
// group whose start date has arrived is always active.
func (s *GroupService) Create(ctx context.Context, req model.CreateGroupRequest) (*model.GroupView, error) {
	g := &model.Group{
		Speciality:   req.Speciality,
		Days:         req.Days,
		LessonTime:   req.LessonTime,
		StartingDate: req.StartingDate,
		IsActive:     true,
		Seats:        req.Seats,
		Price:        req.Price,
		TotalLessons: req.TotalLessons,
		MentorID:     req.MentorID,
	}
	if req.IsActive != nil {
		g.IsActive = *req.IsActive
	}
	if g.ShouldBeActive(s.Today()) {
		g.IsActive = true
	}
	if err := s.checkMentor(ctx, s.employees, g.MentorID, g.Speciality); err != nil {
		return nil, err
	}

	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	s.log.Info().Int64("group_id", g.ID).Str("speciality", string(g.Speciality)).Msg("Group created")
	return s.Get(ctx, g.ID, Scope{})
}

// Update applies a partial update. A price change re-prices every unpaid
// invoice of the group to the new first installment.
func (s *GroupService) Update(ctx context.Context, id int64, req model.UpdateGroupRequest) (*model.GroupView, error) {
	var repriced int64
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		groups := s.groups.WithTx(tx)
		g, err := groups.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		oldPrice := g.Price

		if req.Speciality != nil {
			g.Speciality = *req.Speciality
		}
		if req.Days != nil {
			g.Days = *req.Days
		}
		if req.LessonTime != nil {
			g.LessonTime = *req.LessonTime
		}
		if req.ClearStartingDate {
			g.StartingDate = nil
		}
		if req.StartingDate != nil {
			g.StartingDate = req.StartingDate
		}
		if req.IsActive != nil {
			g.IsActive = *req.IsActive
		}
		if req.Seats != nil {
			if *req.Seats < g.StudentsCount {
				return ErrSeatsBelowEnrolled
			}
			g.Seats = *req.Seats
		}
		if req.Price != nil {
			g.Price = *req.Price
		}
		if req.TotalLessons != nil {
			g.TotalLessons = req.TotalLessons
		}
		if req.ClearMentor {
			g.MentorID = nil
		}
		if req.MentorID != nil {
			g.MentorID = req.MentorID
		}
		if g.ShouldBeActive(s.Today()) {
			g.IsActive = true
		}

		if req.MentorID != nil || req.Speciality != nil {
			if err := s.checkMentor(ctx, s.employees.WithTx(tx), g.MentorID, g.Speciality); err != nil {
				return err
			}
		}
		if err := groups.Update(ctx, g); err != nil {
			return err
		}

		if model.RepricesInvoices(oldPrice, g.Price) {
			repriced, err = s.invoices.WithTx(tx).RepriceUnpaid(ctx, g.ID, model.FirstInstallment(g.Price))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if repriced > 0 {
		s.log.Info().Int64("group_id", id).Int64("invoices", repriced).Msg("Unpaid invoices re-priced")
	}
	return s.Get(ctx, id, Scope{})
}

// Delete removes a group that has no invoices.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.groups.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("group_id", id).Msg("Group deleted")
	return nil
}

// ActivateStarted flips every group whose start date has arrived to active.
func (s *GroupService) ActivateStarted(ctx context.Context) (int64, error) {
	return s.groups.ActivateStarted(ctx, s.Today())
}

// checkMentor requires an active mentor teaching the group's speciality.
func (s *GroupService) checkMentor(ctx context.Context, employees *repository.EmployeeRepository, mentorID *int64, speciality model.Speciality) error {
	if mentorID == nil {
		return nil
	}
	e, err := employees.GetByID(ctx, *mentorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotAMentor
		}
		return err
	}
	if e.Role != model.RoleMentor || !e.IsActive {
		return ErrNotAMentor
	}
	if speciality != "" && (e.Speciality == nil || *e.Speciality != speciality) {
		return ErrNotAMentor
	}
	return nil
}
