package model

import "time"

// Attendance is the register of one lesson: a group on a date and the
// students present.
type Attendance struct {
	ID             int64     `json:"id"`
	GroupID        int64     `json:"group_id"`
	Date           Date      `json:"date"`
	MentorID       *int64    `json:"mentor_id"`
	ParticipantIDs []int64   `json:"participant_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateAttendanceRequest records a lesson. Date defaults to today.
type CreateAttendanceRequest struct {
	GroupID        int64   `json:"group_id" binding:"required,min=1"`
	Date           *Date   `json:"date"`
	ParticipantIDs []int64 `json:"participant_ids" binding:"max=500,dive,min=1"`
}

// UpdateAttendanceRequest replaces the date and/or the participant list.
type UpdateAttendanceRequest struct {
	Date           *Date    `json:"date"`
	ParticipantIDs *[]int64 `json:"participant_ids" binding:"omitempty,max=500,dive,min=1"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	GroupID  *int64
	MentorID *int64
	Date     *Date
	Page     int
	Limit    int
}
