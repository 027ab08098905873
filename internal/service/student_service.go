package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// ErrPasswordMismatch is returned when a registration's passwords differ.
var ErrPasswordMismatch = errors.New("passwords do not match")

// StudentService handles student accounts, from both the staff side and the
// student portal.
type StudentService struct {
	students *repository.StudentRepository
	auth     *AuthService
	cfg      *config.Config
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students *repository.StudentRepository, auth *AuthService, cfg *config.Config, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		auth:     auth,
		cfg:      cfg,
		log:      logger.Component(log, "student_service"),
	}
}

// Register creates a student account from the public form and logs it in.
func (s *StudentService) Register(ctx context.Context, req model.RegisterStudentRequest) (*model.StudentLoginResponse, error) {
	if req.Password != req.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	st, err := s.create(ctx, model.CreateStudentRequest{
		Email:                req.Email,
		FullName:             req.FullName,
		Phone:                req.Phone,
		Password:             req.Password,
		PassportSerialNumber: req.PassportSerialNumber,
		BirthDate:            req.BirthDate,
		Source:               req.Source,
		Address:              req.Address,
		INN:                  req.INN,
		PINFL:                req.PINFL,
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.auth.IssueStudentTokens(ctx, st)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("student_id", st.ID).Str("source", string(st.Source)).Msg("Student registered")
	return &model.StudentLoginResponse{TokenPair: *pair, Student: *st}, nil
}

// Create adds a student on behalf of staff.
func (s *StudentService) Create(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	return s.create(ctx, req)
}

func (s *StudentService) create(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	st := &model.Student{
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:             strings.TrimSpace(req.FullName),
		Phone:                strings.TrimSpace(req.Phone),
		PassportSerialNumber: strings.ToUpper(strings.TrimSpace(req.PassportSerialNumber)),
		Source:               req.Source,
		Address:              req.Address,
		INN:                  req.INN,
		PINFL:                req.PINFL,
		IsActive:             true,
		PasswordHash:         hash,
	}
	if req.BirthDate != nil {
		st.BirthDate = *req.BirthDate
	}
	if err := s.students.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// List returns a page of students.
func (s *StudentService) List(ctx context.Context, f model.StudentFilter) ([]model.Student, int, error) {
	if f.Limit <= 0 {
		f.Limit = s.cfg.PageSize
	}
	return s.students.List(ctx, f)
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id int64) (*model.Student, error) {
	return s.students.GetByID(ctx, id)
}

// Update applies a staff-side partial update.
func (s *StudentService) Update(ctx context.Context, id int64, req model.UpdateStudentRequest) (*model.Student, error) {
	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		st.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FullName != nil {
		st.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		st.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.PassportSerialNumber != nil {
		st.PassportSerialNumber = strings.ToUpper(strings.TrimSpace(*req.PassportSerialNumber))
	}
	if req.BirthDate != nil {
		st.BirthDate = *req.BirthDate
	}
	if req.Source != nil {
		st.Source = *req.Source
	}
	if req.Address != nil {
		st.Address = req.Address
	}
	if req.INN != nil {
		st.INN = req.INN
	}
	if req.PINFL != nil {
		st.PINFL = req.PINFL
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := s.auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		st.PasswordHash = hash
	}

	wasActive := st.IsActive
	if err := s.students.Update(ctx, st); err != nil {
		return nil, err
	}
	if wasActive && !st.IsActive {
		s.revokeSessions(ctx, st.ID)
	}
	return st, nil
}

func (s *StudentService) revokeSessions(ctx context.Context, id int64) {
	if err := s.auth.RevokeUserSessions(ctx, TokenTypeStudent, id); err != nil {
		s.log.Error().Err(err).Int64("student_id", id).Msg("Failed to revoke sessions")
	}
}

// UpdateProfile lets a student edit their own name and address.
func (s *StudentService) UpdateProfile(ctx context.Context, id int64, req model.UpdateStudentProfileRequest) (*model.Student, error) {
	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		st.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Address != nil {
		st.Address = req.Address
	}
	if err := s.students.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Delete removes a student. Students with invoices are kept for the books
// and the repository reports them as referenced.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.log.Info().Int64("student_id", id).Msg("Student deleted")
	return nil
}
