package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateIn(t *testing.T) {
	tashkent := time.FixedZone("UZT", 5*60*60)
	// 20:30 UTC is already the next day in Tashkent.
	instant := time.Date(2025, 1, 31, 20, 30, 0, 0, time.UTC)

	if got := DateIn(instant, tashkent).String(); got != "2025-02-01" {
		t.Errorf("DateIn = %s, want 2025-02-01", got)
	}
	if got := DateIn(instant, nil).String(); got != "2025-01-31" {
		t.Errorf("DateIn(nil) = %s, want 2025-01-31", got)
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-09-01"`), &d); err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2025-09-01"` {
		t.Errorf("Marshal = %s", b)
	}
	if err := json.Unmarshal([]byte(`"01.09.2025"`), &d); err == nil {
		t.Error("expected an error for a non ISO date")
	}
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2025-12")
	if err != nil {
		t.Fatal(err)
	}
	if m.Next().String() != "2026-01" {
		t.Errorf("Next = %s", m.Next())
	}
	if m.First().String() != "2025-12-01" {
		t.Errorf("First = %s", m.First())
	}

	loc := time.FixedZone("UZT", 5*60*60)
	from, to := m.Range(loc)
	if !from.Equal(time.Date(2025, 11, 30, 19, 0, 0, 0, time.UTC)) {
		t.Errorf("Range start = %s", from.UTC())
	}
	if to.Sub(from) != 31*24*time.Hour {
		t.Errorf("Range length = %s", to.Sub(from))
	}

	for _, bad := range []string{"2025-13", "2025/01", "", "25-01"} {
		if _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("ParseMonth(%q) = %v, want ErrInvalidMonth", bad, err)
		}
	}
}
