package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/middleware"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/payment"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
)

// InvoiceHandler handles staff invoice endpoints and the gateway's
// notification endpoints.
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	pageSize       int
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService *service.InvoiceService, pageSize int) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, pageSize: pageSize}
}

// ListInvoices godoc
// GET /api/v1/invoices?status=&student_id=&group_id=&mentor_id=&search=&ordering=&page=&per_page=
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	status := model.InvoiceStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"status": "unknown invoice status"})
		return
	}
	ordering := c.DefaultQuery("ordering", "-created_at")
	if _, ok := model.InvoiceOrderings[ordering]; !ok {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"ordering": "unsupported ordering"})
		return
	}

	studentID, ok := optionalID(c, "student_id")
	if !ok {
		return
	}
	groupID, ok := optionalID(c, "group_id")
	if !ok {
		return
	}
	mentorID, ok := optionalID(c, "mentor_id")
	if !ok {
		return
	}
	page, perPage := pageParams(c)

	invoices, total, err := h.invoiceService.List(c.Request.Context(), model.InvoiceFilter{
		Status:    status,
		StudentID: studentID,
		GroupID:   groupID,
		MentorID:  mentorID,
		Search:    strings.TrimSpace(c.Query("search")),
		Ordering:  ordering,
		Page:      page,
		Limit:     perPage,
	}, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	paginate(c, invoices, page, perPage, h.pageSize, total)
}

// GetInvoice godoc
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, invoice)
}

// CreatePayment godoc
// POST /api/v1/invoices/:id/payment
// Issues a gateway checkout link for an unpaid invoice.
func (h *InvoiceHandler) CreatePayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.CreatePaymentRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	link, err := h.invoiceService.CreatePayment(c.Request.Context(), id, service.ScopeFor(middleware.GetClaims(c)), req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, link)
}

// CheckInvoiceStatus godoc
// POST /api/v1/invoices/:id/check-status
// Pulls the current status from the gateway and applies it.
func (h *InvoiceHandler) CheckInvoiceStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.invoiceService.CheckStatus(c.Request.Context(), id, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// MarkPaid godoc
// POST /api/v1/invoices/mark-paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	var req model.MarkPaidRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.invoiceService.MarkPaid(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// CancelInvoice godoc
// POST /api/v1/invoices/:id/cancel
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, invoice)
}

// MulticardCallback godoc
// GET|POST /api/v1/payments/multicard/callback
// The gateway always gets 200 with a success flag so it stops retrying.
func (h *InvoiceHandler) MulticardCallback(c *gin.Context) {
	var n payment.Notification
	if err := c.ShouldBind(&n); err != nil {
		c.JSON(http.StatusOK, service.NotificationResult{Message: "Invalid payload"})
		return
	}
	c.JSON(http.StatusOK, h.invoiceService.HandleCallback(c.Request.Context(), n))
}

// MulticardWebhook godoc
// POST /api/v1/payments/multicard/webhook
func (h *InvoiceHandler) MulticardWebhook(c *gin.Context) {
	var n payment.Notification
	if err := c.ShouldBind(&n); err != nil {
		c.JSON(http.StatusOK, service.NotificationResult{Message: "Invalid payload"})
		return
	}
	c.JSON(http.StatusOK, h.invoiceService.HandleWebhook(c.Request.Context(), n))
}
