package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	studentService *service.StudentService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, studentService *service.StudentService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		studentService: studentService,
	}
}

// EmployeeLogin godoc
// POST /api/v1/auth/employee/login
// Validates email + password and returns a token pair with the employee and
// their permissions.
func (h *AuthHandler) EmployeeLogin(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.authService.EmployeeLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// StudentRegister godoc
// POST /api/v1/auth/student/register
// Creates a student account and signs it in.
func (h *AuthHandler) StudentRegister(c *gin.Context) {
	var req model.RegisterStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.studentService.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.authService.StudentLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Refresh godoc
// POST /api/v1/auth/refresh
// Exchanges a refresh token for a new pair. The presented token is spent.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, pair)
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the refresh session and, when an access token is sent along, that
// access token too.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req model.RefreshRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()
	if err := h.authService.Logout(ctx, req.Refresh); err != nil {
		fail(c, err)
		return
	}

	if bearer := bearerToken(c); bearer != "" {
		if claims, err := h.authService.ValidateToken(bearer); err == nil && claims.TokenUse == service.TokenUseAccess {
			if err := h.authService.RevokeAccess(ctx, claims); err != nil {
				_ = c.Error(err)
			}
		}
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
