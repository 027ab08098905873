package model

import "time"

// Employee represents a staff account.
type Employee struct {
	ID              int64       `json:"id"`
	Email           string      `json:"email"`
	FullName        string      `json:"full_name"`
	Role            Role        `json:"role"`
	Speciality      *Speciality `json:"speciality"`
	Professionality *string     `json:"professionality"`
	Avatar          *string     `json:"avatar"`
	IsActive        bool        `json:"is_active"`
	PasswordHash    string      `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// LoginRequest is the payload for employee and student authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// TokenPair is returned by every login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// EmployeeLoginResponse is returned after successful employee login.
type EmployeeLoginResponse struct {
	TokenPair
	Employee    Employee `json:"employee"`
	Permissions []string `json:"permissions"`
}

// RefreshRequest carries a refresh token for rotation or logout.
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// CreateEmployeeRequest is the payload for creating a staff account.
type CreateEmployeeRequest struct {
	Email           string      `json:"email" binding:"required,email,max=255"`
	FullName        string      `json:"full_name" binding:"required,min=2,max=255"`
	Password        string      `json:"password" binding:"required,min=8,max=128"`
	Role            Role        `json:"role" binding:"required,role"`
	Speciality      *Speciality `json:"speciality" binding:"omitempty,speciality"`
	Professionality *string     `json:"professionality" binding:"omitempty,max=255"`
}

// UpdateEmployeeRequest is a partial update; nil fields are left unchanged.
// ClearSpeciality removes the speciality when moving a mentor to another role.
type UpdateEmployeeRequest struct {
	FullName        *string     `json:"full_name" binding:"omitempty,min=2,max=255"`
	Role            *Role       `json:"role" binding:"omitempty,role"`
	Speciality      *Speciality `json:"speciality" binding:"omitempty,speciality"`
	ClearSpeciality bool        `json:"clear_speciality"`
	Professionality *string     `json:"professionality" binding:"omitempty,max=255"`
	IsActive        *bool       `json:"is_active"`
	Password        *string     `json:"password" binding:"omitempty,min=8,max=128"`
}

// UpdateProfileRequest is what an employee may change about themselves.
type UpdateProfileRequest struct {
	FullName        *string `json:"full_name" binding:"omitempty,min=2,max=255"`
	Professionality *string `json:"professionality" binding:"omitempty,max=255"`
}

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	Role   Role
	Search string
	Page   int
	Limit  int
}
