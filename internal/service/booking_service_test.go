package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bimuz/bimuz-backend/internal/model"
)

func TestOrderedPair(t *testing.T) {
	if got := orderedPair(9, 3); got != [2]int64{3, 9} {
		t.Errorf("orderedPair(9, 3) = %v", got)
	}
	if got := orderedPair(3, 9); got != [2]int64{3, 9} {
		t.Errorf("orderedPair(3, 9) = %v", got)
	}
}

func TestBookingRejectedError(t *testing.T) {
	err := fmt.Errorf("book: %w", &BookingRejectedError{
		Err:          ErrGroupFull,
		Alternatives: []model.GroupView{{Group: model.Group{ID: 4}}},
	})

	if !errors.Is(err, ErrGroupFull) {
		t.Error("rejection should unwrap to its cause")
	}
	var rejected *BookingRejectedError
	if !errors.As(err, &rejected) || len(rejected.Alternatives) != 1 || rejected.Alternatives[0].ID != 4 {
		t.Errorf("errors.As failed: %+v", rejected)
	}
	if rejected.Error() != ErrGroupFull.Error() {
		t.Errorf("Error() = %q", rejected.Error())
	}
}
