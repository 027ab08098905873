package model

import "time"

// Source records how a student heard about the school.
type Source string

const (
	SourceInstagram Source = "instagram"
	SourceFacebook  Source = "facebook"
	SourceTelegram  Source = "telegram"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceInstagram || s == SourceFacebook || s == SourceTelegram
}

// Student represents a learner account.
type Student struct {
	ID                   int64     `json:"id"`
	Email                string    `json:"email"`
	FullName             string    `json:"full_name"`
	Phone                string    `json:"phone"`
	PassportSerialNumber string    `json:"passport_serial_number"`
	BirthDate            Date      `json:"birth_date"`
	Source               Source    `json:"source"`
	GroupID              *int64    `json:"group_id"`
	Address              *string   `json:"address"`
	INN                  *string   `json:"inn"`
	PINFL                *string   `json:"pinfl"`
	IsActive             bool      `json:"is_active"`
	PasswordHash         string    `json:"-"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// StudentLoginResponse is returned after successful student login or registration.
type StudentLoginResponse struct {
	TokenPair
	Student Student `json:"student"`
}

// RegisterStudentRequest is the public self-registration payload.
type RegisterStudentRequest struct {
	Email                string  `json:"email" binding:"required,email,max=255"`
	FullName             string  `json:"full_name" binding:"required,min=2,max=255"`
	Phone                string  `json:"phone" binding:"required,phone"`
	Password             string  `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirm      string  `json:"password_confirm" binding:"required"`
	PassportSerialNumber string  `json:"passport_serial_number" binding:"required,min=5,max=20"`
	BirthDate            *Date   `json:"birth_date" binding:"required"`
	Source               Source  `json:"source" binding:"required,oneof=instagram facebook telegram"`
	Address              *string `json:"address" binding:"omitempty,max=500"`
	INN                  *string `json:"inn" binding:"omitempty,numeric,max=9"`
	PINFL                *string `json:"pinfl" binding:"omitempty,numeric,len=14"`
}

// CreateStudentRequest is the staff-side create payload.
type CreateStudentRequest struct {
	Email                string  `json:"email" binding:"required,email,max=255"`
	FullName             string  `json:"full_name" binding:"required,min=2,max=255"`
	Phone                string  `json:"phone" binding:"required,phone"`
	Password             string  `json:"password" binding:"required,min=8,max=128"`
	PassportSerialNumber string  `json:"passport_serial_number" binding:"required,min=5,max=20"`
	BirthDate            *Date   `json:"birth_date" binding:"required"`
	Source               Source  `json:"source" binding:"required,oneof=instagram facebook telegram"`
	Address              *string `json:"address" binding:"omitempty,max=500"`
	INN                  *string `json:"inn" binding:"omitempty,numeric,max=9"`
	PINFL                *string `json:"pinfl" binding:"omitempty,numeric,len=14"`
}

// UpdateStudentRequest is the staff-side partial update. Group membership
// changes go through bookings, never through this payload.
type UpdateStudentRequest struct {
	Email                *string `json:"email" binding:"omitempty,email,max=255"`
	FullName             *string `json:"full_name" binding:"omitempty,min=2,max=255"`
	Phone                *string `json:"phone" binding:"omitempty,phone"`
	Password             *string `json:"password" binding:"omitempty,min=8,max=128"`
	PassportSerialNumber *string `json:"passport_serial_number" binding:"omitempty,min=5,max=20"`
	BirthDate            *Date   `json:"birth_date"`
	Source               *Source `json:"source" binding:"omitempty,oneof=instagram facebook telegram"`
	Address              *string `json:"address" binding:"omitempty,max=500"`
	INN                  *string `json:"inn" binding:"omitempty,numeric,max=9"`
	PINFL                *string `json:"pinfl" binding:"omitempty,numeric,len=14"`
	IsActive             *bool   `json:"is_active"`
}

// UpdateStudentProfileRequest is what a student may change about themselves.
type UpdateStudentProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=2,max=255"`
	Address  *string `json:"address" binding:"omitempty,max=500"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search  string
	GroupID *int64
	Source  Source
	Page    int
	Limit   int
}
