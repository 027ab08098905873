package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/database"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// Sentinel errors for bookings.
var (
	ErrAlreadyBooked  = errors.New("student is already enrolled in a group")
	ErrGroupFull      = errors.New("group has no available seats")
	ErrBookingClosed  = errors.New("group no longer accepts bookings")
	ErrNoBooking      = errors.New("student is not enrolled in any group")
	ErrGroupStarted   = errors.New("group has already started")
	ErrSameGroup      = errors.New("student is already in this group")
	ErrStudentBlocked = errors.New("student account is inactive")
)

// maxAlternatives caps the suggestions returned with a refused booking.
const maxAlternatives = 5

// BookingRejectedError wraps a refusal with groups the student could join instead.
type BookingRejectedError struct {
	Err          error
	Alternatives []model.GroupView
}

func (e *BookingRejectedError) Error() string { return e.Err.Error() }
func (e *BookingRejectedError) Unwrap() error { return e.Err }

// BookingService enrols students into groups and raises their invoices.
type BookingService struct {
	db       database.TxRunner
	groups   *repository.GroupRepository
	students *repository.StudentRepository
	invoices *repository.InvoiceRepository
	groupSvc *GroupService
	invSvc   *InvoiceService
	log      zerolog.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(db database.TxRunner, groups *repository.GroupRepository, students *repository.StudentRepository,
	invoices *repository.InvoiceRepository, groupSvc *GroupService, invSvc *InvoiceService, log zerolog.Logger) *BookingService {
	return &BookingService{
		db:       db,
		groups:   groups,
		students: students,
		invoices: invoices,
		groupSvc: groupSvc,
		invSvc:   invSvc,
		log:      logger.Component(log, "booking_service"),
	}
}

// Book enrols a student into a group. The group row is locked so two
// bookings cannot take the last seat. A full group or a closed booking
// window is refused with up to five alternatives.
func (s *BookingService) Book(ctx context.Context, studentID, groupID int64) (*model.BookingResult, error) {
	today := s.groupSvc.Today()

	var (
		student *model.Student
		group   *model.Group
		invoice *model.Invoice
	)
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		student, err = s.students.WithTx(tx).GetByIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		if !student.IsActive {
			return ErrStudentBlocked
		}
		if student.GroupID != nil {
			return ErrAlreadyBooked
		}

		group, err = s.groups.WithTx(tx).GetByIDForUpdate(ctx, groupID)
		if err != nil {
			return err
		}
		if group.AvailableSeats() <= 0 {
			return ErrGroupFull
		}
		if !group.IsActive || !group.CanAcceptBookings(today) {
			return ErrBookingClosed
		}

		if err := s.students.WithTx(tx).SetGroup(ctx, student.ID, &group.ID); err != nil {
			return err
		}
		student.GroupID = &group.ID
		group.StudentsCount++

		invoice, err = s.raiseFirstInvoice(ctx, s.invoices.WithTx(tx), student.ID, group, "First installment (50%)")
		return err
	})
	if err != nil {
		if errors.Is(err, ErrGroupFull) || errors.Is(err, ErrBookingClosed) {
			return nil, s.reject(ctx, err, group)
		}
		return nil, err
	}

	if invoice != nil {
		s.invSvc.Created(ctx, invoice)
	}
	s.log.Info().Int64("student_id", student.ID).Int64("group_id", group.ID).Msg("Student booked")

	info := model.NewPaymentInfo(group.Price, group.TotalLessons)
	info.FirstInvoice = invoice
	return &model.BookingResult{
		Student:     *student,
		Group:       group.View(today),
		PaymentInfo: info,
	}, nil
}

// raiseFirstInvoice creates the booking invoice for half the price unless
// the group is free or the student already owes or paid for it.
func (s *BookingService) raiseFirstInvoice(ctx context.Context, invoices *repository.InvoiceRepository,
	studentID int64, group *model.Group, note string) (*model.Invoice, error) {
	if !model.Invoiceable(group.Price) {
		return nil, nil
	}
	exists, err := invoices.HasOpenOrPaid(ctx, studentID, group.ID)
	if err != nil || exists {
		return nil, err
	}

	inv := &model.Invoice{
		StudentID:       studentID,
		GroupID:         group.ID,
		GroupSpeciality: group.Speciality,
		MentorID:        group.MentorID,
		Amount:          model.FirstInstallment(group.Price),
		Status:          model.InvoiceCreated,
		Notes:           &note,
	}
	if err := invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *BookingService) reject(ctx context.Context, cause error, group *model.Group) error {
	rejected := &BookingRejectedError{Err: cause, Alternatives: []model.GroupView{}}
	if group == nil {
		return rejected
	}
	alts, _, err := s.groupSvc.List(ctx, model.GroupFilter{
		Speciality: group.Speciality,
		Bookable:   true,
		Today:      s.groupSvc.Today(),
		ExcludeID:  group.ID,
		Limit:      maxAlternatives,
	}, Scope{})
	if err != nil {
		s.log.Warn().Err(err).Int64("group_id", group.ID).Msg("Failed to load alternative groups")
		return rejected
	}
	rejected.Alternatives = alts
	return rejected
}

// Cancel takes a student out of their group and cancels the group's unpaid
// invoices. Students cancelling for themselves may do so only before the
// group starts; staff may cancel at any time.
func (s *BookingService) Cancel(ctx context.Context, studentID int64, self bool) (*model.CancelBookingResult, error) {
	today := s.groupSvc.Today()

	var (
		groupID   int64
		cancelled []model.Invoice
	)
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		student, err := s.students.WithTx(tx).GetByIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		if student.GroupID == nil {
			return ErrNoBooking
		}
		groupID = *student.GroupID

		group, err := s.groups.WithTx(tx).GetByIDForUpdate(ctx, groupID)
		if err != nil {
			return err
		}
		if self && group.HasStarted(today) {
			return ErrGroupStarted
		}

		if err := s.students.WithTx(tx).SetGroup(ctx, studentID, nil); err != nil {
			return err
		}
		cancelled, err = s.invoices.WithTx(tx).CancelUnpaid(ctx, studentID, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invSvc.CancelledByBooking(ctx, cancelled)
	s.log.Info().Int64("student_id", studentID).Int64("group_id", groupID).Int("cancelled_invoices", len(cancelled)).
		Bool("self", self).Msg("Booking cancelled")

	return &model.CancelBookingResult{
		StudentID:         studentID,
		GroupID:           groupID,
		CancelledInvoices: int64(len(cancelled)),
	}, nil
}

// ChangeGroup moves an enrolled student to another group. Unpaid invoices
// of the old group are cancelled and money already paid is compared with
// the new price: an overpayment is reported as a refund, otherwise the
// first installment of the new group is raised.
func (s *BookingService) ChangeGroup(ctx context.Context, studentID, newGroupID int64) (*model.ChangeGroupResult, error) {
	today := s.groupSvc.Today()

	var (
		res       = &model.ChangeGroupResult{}
		newGroup  *model.Group
		invoice   *model.Invoice
		cancelled []model.Invoice
	)
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		students := s.students.WithTx(tx)
		groups := s.groups.WithTx(tx)
		invoices := s.invoices.WithTx(tx)

		student, err := students.GetByIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		if student.GroupID == nil {
			return ErrNoBooking
		}
		if *student.GroupID == newGroupID {
			return ErrSameGroup
		}
		oldGroupID := *student.GroupID

		// Lock both groups in id order so concurrent moves cannot deadlock.
		var oldGroup *model.Group
		for _, id := range orderedPair(oldGroupID, newGroupID) {
			g, err := groups.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if id == newGroupID {
				newGroup = g
			} else {
				oldGroup = g
			}
		}
		if newGroup.AvailableSeats() <= 0 {
			return ErrGroupFull
		}

		paid, err := invoices.SumPaid(ctx, studentID, oldGroupID)
		if err != nil {
			return err
		}
		cancelled, err = invoices.CancelUnpaid(ctx, studentID, oldGroupID)
		if err != nil {
			return err
		}
		if err := students.SetGroup(ctx, studentID, &newGroup.ID); err != nil {
			return err
		}
		student.GroupID = &newGroup.ID
		newGroup.StudentsCount++

		res.Student = *student
		res.OldGroupID = oldGroup.ID
		res.PaidTotal = paid
		res.PriceDifference = newGroup.Price - oldGroup.Price
		if paid > newGroup.Price {
			res.RefundAmount = paid - newGroup.Price
			return nil
		}
		if paid == newGroup.Price {
			return nil
		}

		note := fmt.Sprintf("First installment (50%%) after moving from group %d; paid for old group: %d", oldGroup.ID, paid)
		invoice, err = s.raiseFirstInvoice(ctx, invoices, studentID, newGroup, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invSvc.CancelledByBooking(ctx, cancelled)
	if invoice != nil {
		s.invSvc.Created(ctx, invoice)
	}

	res.NewGroup = newGroup.View(today)
	res.CancelledInvoices = int64(len(cancelled))
	res.PaymentInfo = model.NewPaymentInfo(newGroup.Price, newGroup.TotalLessons)
	res.PaymentInfo.FirstInvoice = invoice

	s.log.Info().Int64("student_id", studentID).Int64("old_group_id", res.OldGroupID).Int64("new_group_id", newGroup.ID).
		Int64("refund", res.RefundAmount).Msg("Student changed group")
	return res, nil
}

func orderedPair(a, b int64) [2]int64 {
	if a < b {
		return [2]int64{a, b}
	}
	return [2]int64{b, a}
}
