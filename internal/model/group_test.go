package model

import (
	"testing"
	"time"
)

func intPtr(n int) *int { return &n }

func TestFinishDate(t *testing.T) {
	// 2025-03-03 is a Monday.
	start := NewDate(2025, time.March, 3)

	tests := []struct {
		name    string
		days    ScheduleDays
		lessons int
		want    string
	}{
		{"single lesson", DaysMonWedFri, 1, "2025-03-03"},
		{"one week", DaysMonWedFri, 3, "2025-03-07"},
		{"two weeks", DaysMonWedFri, 6, "2025-03-14"},
		{"start off pattern", DaysTueThuSat, 2, "2025-03-04"},
		{"tue thu sat", DaysTueThuSat, 4, "2025-03-08"},
	}
	for _, tt := range tests {
		got := FinishDate(start, tt.days, tt.lessons)
		if got == nil || got.String() != tt.want {
			t.Errorf("%s: FinishDate = %v, want %s", tt.name, got, tt.want)
		}
	}

	if FinishDate(start, DaysMonWedFri, 0) != nil {
		t.Error("zero lessons should have no finish date")
	}
	if FinishDate(start, ScheduleDays("daily"), 5) != nil {
		t.Error("unknown pattern should have no finish date")
	}
}

func TestBookingWindow(t *testing.T) {
	start := NewDate(2025, time.March, 3)
	g := Group{StartingDate: &start, Seats: 10, StudentsCount: 4}

	tests := []struct {
		today   Date
		accepts bool
		planned bool
	}{
		{start.AddDays(-1), true, true},
		{start, true, false},
		{start.AddDays(BookingWindowDays - 1), true, false},
		{start.AddDays(BookingWindowDays), false, false},
		{start.AddDays(30), false, false},
	}
	for _, tt := range tests {
		if got := g.CanAcceptBookings(tt.today); got != tt.accepts {
			t.Errorf("CanAcceptBookings(%s) = %v, want %v", tt.today, got, tt.accepts)
		}
		if got := g.IsPlanned(tt.today); got != tt.planned {
			t.Errorf("IsPlanned(%s) = %v, want %v", tt.today, got, tt.planned)
		}
	}

	if !(Group{}).CanAcceptBookings(start) {
		t.Error("a group without a start date accepts bookings")
	}
}

func TestGroupView(t *testing.T) {
	start := NewDate(2025, time.March, 3)
	g := Group{StartingDate: &start, Days: DaysMonWedFri, TotalLessons: intPtr(6), Seats: 3, StudentsCount: 5}

	v := g.View(start.AddDays(4))
	if v.AvailableSeats != 0 {
		t.Errorf("AvailableSeats = %d, want 0 for an overbooked group", v.AvailableSeats)
	}
	if v.DaysSinceStart == nil || *v.DaysSinceStart != 4 {
		t.Errorf("DaysSinceStart = %v, want 4", v.DaysSinceStart)
	}
	if v.MidpointLesson == nil || *v.MidpointLesson != 3 {
		t.Errorf("MidpointLesson = %v, want 3", v.MidpointLesson)
	}
	if v.FinishDate == nil || v.FinishDate.String() != "2025-03-14" {
		t.Errorf("FinishDate = %v, want 2025-03-14", v.FinishDate)
	}

	before := g.View(start.AddDays(-2))
	if before.DaysSinceStart != nil {
		t.Error("DaysSinceStart should be nil before the start")
	}
}
