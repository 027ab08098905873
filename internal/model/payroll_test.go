package model

import (
	"testing"
	"time"
)

func TestSplitRevenue(t *testing.T) {
	tests := []struct {
		revenue  int64
		students int
		mentor   int64
		director int64
		pct      int
	}{
		{1_000_000, 1, 550_000, 450_000, 55},
		{1_000_000, SplitStudentThreshold, 550_000, 450_000, 55},
		{1_000_000, SplitStudentThreshold + 1, 600_000, 400_000, 60},
		{101, 2, 55, 46, 55},
		{0, 0, 0, 0, 55},
	}
	for _, tt := range tests {
		s := SplitRevenue(tt.revenue, tt.students)
		if s.MentorShare != tt.mentor || s.DirectorShare != tt.director || s.MentorPercent != tt.pct {
			t.Errorf("SplitRevenue(%d, %d) = %+v", tt.revenue, tt.students, s)
		}
		if s.MentorShare+s.DirectorShare != tt.revenue {
			t.Errorf("shares of %d do not add up: %+v", tt.revenue, s)
		}
		if s.MentorPercent+s.DirectorPercent != 100 {
			t.Errorf("percents do not add up: %+v", s)
		}
	}
}

func TestDirectorRemaining(t *testing.T) {
	if got := DirectorRemaining(500, 200); got != 300 {
		t.Errorf("DirectorRemaining(500, 200) = %d", got)
	}
	if got := DirectorRemaining(200, 500); got != 0 {
		t.Errorf("DirectorRemaining(200, 500) = %d, want 0", got)
	}
}

func TestApplyPaid(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)

	if ApplyPaid(false, &earlier, now) != nil {
		t.Error("unmarking should clear the date")
	}
	if got := ApplyPaid(true, &earlier, now); got == nil || !got.Equal(earlier) {
		t.Errorf("marking again should keep the existing date, got %v", got)
	}
	if got := ApplyPaid(true, nil, now); got == nil || !got.Equal(now) {
		t.Errorf("first marking should stamp now, got %v", got)
	}
}

func TestNewPaymentInfoEvenLessons(t *testing.T) {
	info := NewPaymentInfo(1_000_001, intPtr(24))
	if info.FirstInstallment != 500_000 || info.SecondInstallment != 500_001 {
		t.Errorf("installments = %d + %d", info.FirstInstallment, info.SecondInstallment)
	}
	if info.MidpointLesson == nil || *info.MidpointLesson != 12 {
		t.Errorf("MidpointLesson = %v, want 12", info.MidpointLesson)
	}

	free := NewPaymentInfo(0, nil)
	if free.FirstInstallment != 0 || free.MidpointLesson != nil {
		t.Errorf("free group info = %+v", free)
	}
}
