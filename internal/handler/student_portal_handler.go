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

// StudentPortalHandler handles student-facing endpoints: profile, group
// browsing, self-service bookings, and the student's own invoices.
type StudentPortalHandler struct {
	studentService *service.StudentService
	groupService   *service.GroupService
	bookingService *service.BookingService
	invoiceService *service.InvoiceService
	pageSize       int
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	studentService *service.StudentService,
	groupService *service.GroupService,
	bookingService *service.BookingService,
	invoiceService *service.InvoiceService,
	pageSize int,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		studentService: studentService,
		groupService:   groupService,
		bookingService: bookingService,
		invoiceService: invoiceService,
		pageSize:       pageSize,
	}
}

// GetProfile godoc
// GET /api/v1/student/me
func (h *StudentPortalHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// UpdateProfile godoc
// PATCH /api/v1/student/me
func (h *StudentPortalHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdateStudentProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// ListGroups godoc
// GET /api/v1/student/groups?speciality=&page=&per_page=
// Only groups that still accept bookings today are listed.
func (h *StudentPortalHandler) ListGroups(c *gin.Context) {
	speciality := model.Speciality(c.Query("speciality"))
	if speciality != "" && !speciality.Valid() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSpecialty)
		return
	}
	page, perPage := pageParams(c)

	groups, total, err := h.groupService.Bookable(c.Request.Context(), speciality, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	paginate(c, groups, page, perPage, h.pageSize, total)
}

// BookGroup godoc
// POST /api/v1/student/bookings
// A full or closed group answers 409 with alternative groups attached.
func (h *StudentPortalHandler) BookGroup(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.BookGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.bookingService.Book(c.Request.Context(), claims.UserID, req.GroupID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// CancelBooking godoc
// POST /api/v1/student/bookings/cancel
// Students may leave a group only before it starts.
func (h *StudentPortalHandler) CancelBooking(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.bookingService.Cancel(c.Request.Context(), claims.UserID, true)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListInvoices godoc
// GET /api/v1/student/invoices?status=&page=&per_page=
func (h *StudentPortalHandler) ListInvoices(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	status := model.InvoiceStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"status": "unknown invoice status"})
		return
	}
	page, perPage := pageParams(c)

	invoices, total, err := h.invoiceService.List(c.Request.Context(), model.InvoiceFilter{
		Status:   status,
		Ordering: "-created_at",
		Page:     page,
		Limit:    perPage,
	}, service.ScopeFor(claims))
	if err != nil {
		fail(c, err)
		return
	}

	paginate(c, invoices, page, perPage, h.pageSize, total)
}

// GetInvoice godoc
// GET /api/v1/student/invoices/:id
func (h *StudentPortalHandler) GetInvoice(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id, service.ScopeFor(claims))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, invoice)
}

// CreatePayment godoc
// POST /api/v1/student/invoices/:id/payment
func (h *StudentPortalHandler) CreatePayment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.CreatePaymentRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	link, err := h.invoiceService.CreatePayment(c.Request.Context(), id, service.ScopeFor(claims), req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, link)
}

// CheckInvoiceStatus godoc
// POST /api/v1/student/invoices/:id/check-status
func (h *StudentPortalHandler) CheckInvoiceStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.invoiceService.CheckStatus(c.Request.Context(), id, service.ScopeFor(claims))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
