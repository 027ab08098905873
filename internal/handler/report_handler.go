package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
)

// ReportHandler handles monthly reports and payroll records.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// month reads ?month=YYYY-MM, defaulting to the current month.
func (h *ReportHandler) month(c *gin.Context) (model.Month, bool) {
	raw := c.Query("month")
	if raw == "" {
		return h.reportService.CurrentMonth(), true
	}
	m, err := model.ParseMonth(raw)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidMonth)
		return model.Month{}, false
	}
	return m, true
}

// GetMonthlyReport godoc
// GET /api/v1/reports/monthly?month=YYYY-MM
func (h *ReportHandler) GetMonthlyReport(c *gin.Context) {
	month, ok := h.month(c)
	if !ok {
		return
	}

	report, err := h.reportService.Monthly(c.Request.Context(), month)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// ExportMonthlyReport godoc
// GET /api/v1/reports/monthly/export?month=YYYY-MM
// Streams the report as an XLSX attachment.
func (h *ReportHandler) ExportMonthlyReport(c *gin.Context) {
	month, ok := h.month(c)
	if !ok {
		return
	}

	buf, err := h.reportService.ExportMonthly(c.Request.Context(), month)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, month))
	c.Data(http.StatusOK, service.XLSXContentType, buf.Bytes())
}

// ListSalaries godoc
// GET /api/v1/payroll/salaries?month=YYYY-MM
func (h *ReportHandler) ListSalaries(c *gin.Context) {
	month, ok := h.month(c)
	if !ok {
		return
	}

	salaries, err := h.reportService.ListSalaries(c.Request.Context(), month)
	if err != nil {
		fail(c, err)
		return
	}
	if salaries == nil {
		salaries = []model.EmployeeSalary{}
	}

	response.Success(c, http.StatusOK, salaries)
}

// UpsertSalary godoc
// PUT /api/v1/payroll/salaries
// Creates or replaces the salary of a non-mentor employee for a month.
func (h *ReportHandler) UpsertSalary(c *gin.Context) {
	var req model.UpsertSalaryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	salary, created, err := h.reportService.UpsertSalary(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, salary)
}

// SetSalaryPaid godoc
// PATCH /api/v1/payroll/salaries/:id/paid
func (h *ReportHandler) SetSalaryPaid(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.MarkSalaryPaidRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	salary, err := h.reportService.SetSalaryPaid(c.Request.Context(), id, *req.IsPaid)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, salary)
}

// ListMentorPayments godoc
// GET /api/v1/payroll/mentor-payments?month=YYYY-MM
func (h *ReportHandler) ListMentorPayments(c *gin.Context) {
	month, ok := h.month(c)
	if !ok {
		return
	}

	payments, err := h.reportService.ListMentorPayments(c.Request.Context(), month)
	if err != nil {
		fail(c, err)
		return
	}
	if payments == nil {
		payments = []model.MentorPayment{}
	}

	response.Success(c, http.StatusOK, payments)
}

// UpsertMentorPayment godoc
// PUT /api/v1/payroll/mentor-payments
func (h *ReportHandler) UpsertMentorPayment(c *gin.Context) {
	var req model.UpsertMentorPaymentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payment, created, err := h.reportService.UpsertMentorPayment(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, payment)
}
