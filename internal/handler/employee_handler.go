package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/middleware"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
)

// EmployeeHandler handles staff accounts and the employee's own profile.
type EmployeeHandler struct {
	employeeService *service.EmployeeService
	pageSize        int
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(employeeService *service.EmployeeService, pageSize int) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService, pageSize: pageSize}
}

// GetProfile godoc
// GET /api/v1/employee/me
func (h *EmployeeHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	e, err := h.employeeService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"employee":    e,
		"permissions": claims.Permissions,
	})
}

// UpdateProfile godoc
// PATCH /api/v1/employee/me
// Lets an employee change their name and professionality.
func (h *EmployeeHandler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	e, err := h.employeeService.UpdateProfile(c.Request.Context(), middleware.GetClaims(c).UserID, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, e)
}

// UploadAvatar godoc
// POST /api/v1/employee/me/avatar
// Accepts a multipart "file" image and stores it as the employee's avatar.
func (h *EmployeeHandler) UploadAvatar(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	e, err := h.employeeService.UploadAvatar(c.Request.Context(), middleware.GetClaims(c).UserID, file, header)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, e)
}

// ListRoles godoc
// GET /api/v1/employee/roles
func (h *EmployeeHandler) ListRoles(c *gin.Context) {
	response.Success(c, http.StatusOK, h.employeeService.Roles())
}

// ListEmployees godoc
// GET /api/v1/employees?role=&search=&page=&per_page=
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	page, perPage := pageParams(c)
	role := model.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"role": "must be a known employee role"})
		return
	}

	employees, total, err := h.employeeService.List(c.Request.Context(), model.EmployeeFilter{
		Role:   role,
		Search: strings.TrimSpace(c.Query("search")),
		Page:   page,
		Limit:  perPage,
	})
	if err != nil {
		fail(c, err)
		return
	}

	paginate(c, employees, page, perPage, h.pageSize, total)
}

// CreateEmployee godoc
// POST /api/v1/employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req model.CreateEmployeeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	e, err := h.employeeService.Create(c.Request.Context(), middleware.GetClaims(c).Role, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, e)
}

// GetEmployee godoc
// GET /api/v1/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	e, err := h.employeeService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, e)
}

// UpdateEmployee godoc
// PATCH /api/v1/employees/:id
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateEmployeeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	e, err := h.employeeService.Update(c.Request.Context(), middleware.GetClaims(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, e)
}

// DeleteEmployee godoc
// DELETE /api/v1/employees/:id
// Employees are never removed; the account is deactivated instead.
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.employeeService.Deactivate(c.Request.Context(), middleware.GetClaims(c), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Employee deactivated"})
}
