package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// Sentinel errors for employee management.
var (
	ErrRoleHierarchy     = errors.New("role cannot manage this employee or assign this role")
	ErrInvalidSpeciality = errors.New("mentors need a speciality and other roles must not have one")
	ErrSelfDeactivation  = errors.New("employees cannot deactivate themselves")
)

// EmployeeService handles staff accounts.
type EmployeeService struct {
	employees *repository.EmployeeRepository
	auth      *AuthService
	media     *MediaService
	cfg       *config.Config
	log       zerolog.Logger
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(employees *repository.EmployeeRepository, auth *AuthService, media *MediaService,
	cfg *config.Config, log zerolog.Logger) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		auth:      auth,
		media:     media,
		cfg:       cfg,
		log:       logger.Component(log, "employee_service"),
	}
}

// Roles lists every role with the permissions it grants.
func (s *EmployeeService) Roles() []model.RoleWithPermissions {
	out := make([]model.RoleWithPermissions, 0, len(model.AllRoles))
	for _, r := range model.AllRoles {
		out = append(out, model.RoleWithPermissions{Role: r, Permissions: model.PermissionsFor(r)})
	}
	return out
}

// List returns a page of employees.
func (s *EmployeeService) List(ctx context.Context, f model.EmployeeFilter) ([]model.Employee, int, error) {
	if f.Limit <= 0 {
		f.Limit = s.cfg.PageSize
	}
	return s.employees.List(ctx, f)
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, id int64) (*model.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// Create adds a staff account. The actor must be allowed to hand out the role.
func (s *EmployeeService) Create(ctx context.Context, actor model.Role, req model.CreateEmployeeRequest) (*model.Employee, error) {
	if !model.CanAssign(actor, req.Role) {
		return nil, ErrRoleHierarchy
	}
	if !model.ValidateSpeciality(req.Role, req.Speciality) {
		return nil, ErrInvalidSpeciality
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	e := &model.Employee{
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:        strings.TrimSpace(req.FullName),
		Role:            req.Role,
		Speciality:      req.Speciality,
		Professionality: req.Professionality,
		IsActive:        true,
		PasswordHash:    hash,
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().Int64("employee_id", e.ID).Str("role", string(e.Role)).Str("by", string(actor)).Msg("Employee created")
	return e, nil
}

// Update applies a partial update on behalf of actor.
func (s *EmployeeService) Update(ctx context.Context, actor *Claims, id int64, req model.UpdateEmployeeRequest) (*model.Employee, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanManage(actor.Role, e.Role) {
		return nil, ErrRoleHierarchy
	}
	if req.Role != nil && *req.Role != e.Role && !model.CanAssign(actor.Role, *req.Role) {
		return nil, ErrRoleHierarchy
	}
	if req.IsActive != nil && !*req.IsActive && e.ID == actor.UserID {
		return nil, ErrSelfDeactivation
	}
	before := *e

	if req.FullName != nil {
		e.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		e.Role = *req.Role
	}
	if req.ClearSpeciality {
		e.Speciality = nil
	}
	if req.Speciality != nil {
		e.Speciality = req.Speciality
	}
	if req.Professionality != nil {
		e.Professionality = req.Professionality
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := s.auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		e.PasswordHash = hash
	}

	if !model.ValidateSpeciality(e.Role, e.Speciality) {
		return nil, ErrInvalidSpeciality
	}
	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}

	if sessionsInvalidated(&before, e) {
		if err := s.auth.RevokeUserSessions(ctx, TokenTypeEmployee, e.ID); err != nil {
			s.log.Error().Err(err).Int64("employee_id", e.ID).Msg("Failed to revoke sessions")
		} else {
			s.log.Info().Int64("employee_id", e.ID).Str("role", string(e.Role)).Bool("active", e.IsActive).Msg("Sessions revoked")
		}
	}
	return e, nil
}

// sessionsInvalidated reports whether an update makes the permissions held
// in the employee's tokens stale.
func sessionsInvalidated(before, after *model.Employee) bool {
	return before.Role != after.Role || (before.IsActive && !after.IsActive)
}

// Deactivate disables an account instead of deleting it, keeping groups,
// attendance and payroll history intact.
func (s *EmployeeService) Deactivate(ctx context.Context, actor *Claims, id int64) error {
	inactive := false
	_, err := s.Update(ctx, actor, id, model.UpdateEmployeeRequest{IsActive: &inactive})
	if err == nil {
		s.log.Info().Int64("employee_id", id).Int64("by", actor.UserID).Msg("Employee deactivated")
	}
	return err
}

// UpdateProfile lets an employee edit their own name and professionality.
func (s *EmployeeService) UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.Employee, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		e.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Professionality != nil {
		e.Professionality = req.Professionality
	}
	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UploadAvatar stores a new avatar and replaces the previous one.
func (s *EmployeeService) UploadAvatar(ctx context.Context, id int64, file multipart.File, header *multipart.FileHeader) (*model.Employee, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.media.SaveImage("avatars", file, header)
	if err != nil {
		return nil, err
	}
	if err := s.employees.SetAvatar(ctx, id, url); err != nil {
		s.media.Remove(url)
		return nil, err
	}

	if e.Avatar != nil {
		s.media.Remove(*e.Avatar)
	}
	e.Avatar = &url
	return e, nil
}
