package model

import "time"

// BookingWindowDays is how long after its start a group still accepts students.
const BookingWindowDays = 10

// ScheduleDays is the weekly lesson pattern of a group.
type ScheduleDays string

const (
	DaysMonWedFri ScheduleDays = "mon_wed_fri"
	DaysTueThuSat ScheduleDays = "tue_thu_sat"
)

// Weekdays returns the lesson weekdays of the pattern.
func (d ScheduleDays) Weekdays() []time.Weekday {
	switch d {
	case DaysMonWedFri:
		return []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	case DaysTueThuSat:
		return []time.Weekday{time.Tuesday, time.Thursday, time.Saturday}
	default:
		return nil
	}
}

// IsLessonDay reports whether wd is a lesson day in the pattern.
func (d ScheduleDays) IsLessonDay(wd time.Weekday) bool {
	for _, day := range d.Weekdays() {
		if day == wd {
			return true
		}
	}
	return false
}

// Group is a course offering.
type Group struct {
	ID               int64        `json:"id"`
	Speciality       Speciality   `json:"speciality"`
	Days             ScheduleDays `json:"days"`
	LessonTime       string       `json:"lesson_time"`
	StartingDate     *Date        `json:"starting_date"`
	IsActive         bool         `json:"is_active"`
	Seats            int          `json:"seats"`
	Price            int64        `json:"price"`
	TotalLessons     *int         `json:"total_lessons"`
	MentorID         *int64       `json:"mentor_id"`
	MentorName       *string      `json:"mentor_name"`
	StudentsCount    int          `json:"current_students_count"`
	LessonsConducted int          `json:"lessons_conducted"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// GroupView is a Group with the fields derived from today's date.
type GroupView struct {
	Group
	FinishDate        *Date `json:"finish_date"`
	AvailableSeats    int   `json:"available_seats"`
	IsPlanned         bool  `json:"is_planned"`
	CanAcceptBookings bool  `json:"can_accept_bookings"`
	DaysSinceStart    *int  `json:"days_since_start"`
	MidpointLesson    *int  `json:"midpoint_lesson"`
}

// View derives the computed fields as of today.
func (g Group) View(today Date) GroupView {
	v := GroupView{
		Group:             g,
		AvailableSeats:    g.AvailableSeats(),
		IsPlanned:         g.IsPlanned(today),
		CanAcceptBookings: g.CanAcceptBookings(today),
		DaysSinceStart:    g.DaysSinceStart(today),
	}
	if g.StartingDate != nil && g.TotalLessons != nil {
		v.FinishDate = FinishDate(*g.StartingDate, g.Days, *g.TotalLessons)
	}
	if g.TotalLessons != nil {
		mid := *g.TotalLessons / 2
		v.MidpointLesson = &mid
	}
	return v
}

// AvailableSeats never goes below zero even if a group was overbooked by hand.
func (g Group) AvailableSeats() int {
	if free := g.Seats - g.StudentsCount; free > 0 {
		return free
	}
	return 0
}

// IsPlanned reports whether the group starts after today.
func (g Group) IsPlanned(today Date) bool {
	return g.StartingDate != nil && g.StartingDate.After(today)
}

// HasStarted reports whether the start date is today or earlier.
func (g Group) HasStarted(today Date) bool {
	return g.StartingDate != nil && !g.StartingDate.After(today)
}

// DaysSinceStart is nil until the group starts.
func (g Group) DaysSinceStart(today Date) *int {
	if !g.HasStarted(today) {
		return nil
	}
	days := today.DaysSince(*g.StartingDate)
	return &days
}

// CanAcceptBookings applies the booking window: groups without a start date
// or not yet started always accept, started groups accept for
// BookingWindowDays days.
func (g Group) CanAcceptBookings(today Date) bool {
	if !g.HasStarted(today) {
		return true
	}
	return today.DaysSince(*g.StartingDate) < BookingWindowDays
}

// ShouldBeActive reports whether the start date has been reached.
func (g Group) ShouldBeActive(today Date) bool {
	return g.HasStarted(today)
}

// FinishDate returns the date of the last lesson. The starting date counts
// as lesson one; later lessons fall on the pattern's weekdays.
func FinishDate(start Date, days ScheduleDays, totalLessons int) *Date {
	if totalLessons <= 0 || len(days.Weekdays()) == 0 {
		return nil
	}
	current := start
	for counted := 1; counted < totalLessons; {
		current = current.AddDays(1)
		if days.IsLessonDay(current.Weekday()) {
			counted++
		}
	}
	return &current
}

// CreateGroupRequest is the payload for creating a group.
type CreateGroupRequest struct {
	Speciality   Speciality   `json:"speciality" binding:"required,speciality"`
	Days         ScheduleDays `json:"days" binding:"required,oneof=mon_wed_fri tue_thu_sat"`
	LessonTime   string       `json:"lesson_time" binding:"required,datetime=15:04"`
	StartingDate *Date        `json:"starting_date"`
	IsActive     *bool        `json:"is_active"`
	Seats        int          `json:"seats" binding:"required,min=1,max=500"`
	Price        int64        `json:"price" binding:"min=0"`
	TotalLessons *int         `json:"total_lessons" binding:"omitempty,min=1,max=1000"`
	MentorID     *int64       `json:"mentor_id" binding:"omitempty,min=1"`
}

// UpdateGroupRequest is a partial update.
type UpdateGroupRequest struct {
	Speciality        *Speciality   `json:"speciality" binding:"omitempty,speciality"`
	Days              *ScheduleDays `json:"days" binding:"omitempty,oneof=mon_wed_fri tue_thu_sat"`
	LessonTime        *string       `json:"lesson_time" binding:"omitempty,datetime=15:04"`
	StartingDate      *Date         `json:"starting_date"`
	ClearStartingDate bool          `json:"clear_starting_date"`
	IsActive          *bool         `json:"is_active"`
	Seats             *int          `json:"seats" binding:"omitempty,min=1,max=500"`
	Price             *int64        `json:"price" binding:"omitempty,min=0"`
	TotalLessons      *int          `json:"total_lessons" binding:"omitempty,min=1,max=1000"`
	MentorID          *int64        `json:"mentor_id" binding:"omitempty,min=1"`
	ClearMentor       bool          `json:"clear_mentor"`
}

// GroupFilter narrows group listings. MentorID is forced for mentors.
// Bookable keeps only groups a student could join on Today.
type GroupFilter struct {
	Speciality Speciality
	IsActive   *bool
	MentorID   *int64
	Bookable   bool
	Today      Date
	ExcludeID  int64
	Page       int
	Limit      int
}
