package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/middleware"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
)

// AttendanceHandler handles lesson attendance registers.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
	pageSize          int
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService, pageSize int) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService, pageSize: pageSize}
}

// ListAttendances godoc
// GET /api/v1/attendances?group_id=&mentor_id=&date=&page=&per_page=
func (h *AttendanceHandler) ListAttendances(c *gin.Context) {
	groupID, ok := optionalID(c, "group_id")
	if !ok {
		return
	}
	mentorID, ok := optionalID(c, "mentor_id")
	if !ok {
		return
	}

	var date *model.Date
	if raw := c.Query("date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"date": "must use the YYYY-MM-DD format"})
			return
		}
		date = &d
	}
	page, perPage := pageParams(c)

	records, total, err := h.attendanceService.List(c.Request.Context(), model.AttendanceFilter{
		GroupID:  groupID,
		MentorID: mentorID,
		Date:     date,
		Page:     page,
		Limit:    perPage,
	}, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	paginate(c, records, page, perPage, h.pageSize, total)
}

// CreateAttendance godoc
// POST /api/v1/attendances
// One register per group and date; a second one answers 409.
func (h *AttendanceHandler) CreateAttendance(c *gin.Context) {
	var req model.CreateAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	record, err := h.attendanceService.Create(c.Request.Context(), req, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, record)
}

// GetAttendance godoc
// GET /api/v1/attendances/:id
func (h *AttendanceHandler) GetAttendance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	record, err := h.attendanceService.Get(c.Request.Context(), id, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// UpdateAttendance godoc
// PATCH /api/v1/attendances/:id
func (h *AttendanceHandler) UpdateAttendance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	record, err := h.attendanceService.Update(c.Request.Context(), id, req, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// DeleteAttendance godoc
// DELETE /api/v1/attendances/:id
func (h *AttendanceHandler) DeleteAttendance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.attendanceService.Delete(c.Request.Context(), id, service.ScopeFor(middleware.GetClaims(c))); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Attendance deleted"})
}
