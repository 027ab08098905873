package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
)

// BookingHandler lets staff book, cancel, and move students.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookGroup godoc
// POST /api/v1/bookings
func (h *BookingHandler) BookGroup(c *gin.Context) {
	var req model.BookGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.StudentID == 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"student_id": "student_id is a required field"})
		return
	}

	result, err := h.bookingService.Book(c.Request.Context(), req.StudentID, req.GroupID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// CancelBooking godoc
// POST /api/v1/bookings/cancel
// Staff may cancel after the group has started.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req model.CancelBookingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.bookingService.Cancel(c.Request.Context(), req.StudentID, false)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ChangeGroup godoc
// POST /api/v1/bookings/change-group
func (h *BookingHandler) ChangeGroup(c *gin.Context) {
	var req model.ChangeGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.bookingService.ChangeGroup(c.Request.Context(), req.StudentID, req.NewGroupID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
