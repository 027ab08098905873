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

// StudentHandler handles staff-side student management.
type StudentHandler struct {
	studentService *service.StudentService
	pageSize       int
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, pageSize int) *StudentHandler {
	return &StudentHandler{studentService: studentService, pageSize: pageSize}
}

// ListStudents godoc
// GET /api/v1/students?search=&group_id=&source=&page=&per_page=
func (h *StudentHandler) ListStudents(c *gin.Context) {
	page, perPage := pageParams(c)
	groupID, ok := optionalID(c, "group_id")
	if !ok {
		return
	}

	source := model.Source(c.Query("source"))
	if source != "" && !source.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"source": "must be one of instagram facebook telegram"})
		return
	}

	students, total, err := h.studentService.List(c.Request.Context(), model.StudentFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		GroupID: groupID,
		Source:  source,
		Page:    page,
		Limit:   perPage,
	})
	if err != nil {
		fail(c, err)
		return
	}

	paginate(c, students, page, perPage, h.pageSize, total)
}

// CreateStudent godoc
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// GetStudent godoc
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// UpdateStudent godoc
// PATCH /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// DeleteStudent godoc
// DELETE /api/v1/students/:id
// Students with invoices are kept for the books and answer 409.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Student deleted"})
}
