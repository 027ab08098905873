package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
)

// DashboardHandler handles staff dashboard endpoints.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboardData godoc
// GET /api/v1/employee/dashboard
// Returns the headline counts: students, groups, unpaid invoices, and this month's revenue.
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	data, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}
