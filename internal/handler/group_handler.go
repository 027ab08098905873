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

// GroupHandler handles group management. Mentors only see their own groups.
type GroupHandler struct {
	groupService *service.GroupService
	pageSize     int
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService *service.GroupService, pageSize int) *GroupHandler {
	return &GroupHandler{groupService: groupService, pageSize: pageSize}
}

// ListGroups godoc
// GET /api/v1/groups?speciality=&is_active=&mentor_id=&page=&per_page=
func (h *GroupHandler) ListGroups(c *gin.Context) {
	speciality := model.Speciality(c.Query("speciality"))
	if speciality != "" && !speciality.Valid() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSpecialty)
		return
	}
	isActive, ok := optionalBool(c, "is_active")
	if !ok {
		return
	}
	mentorID, ok := optionalID(c, "mentor_id")
	if !ok {
		return
	}
	page, perPage := pageParams(c)

	groups, total, err := h.groupService.List(c.Request.Context(), model.GroupFilter{
		Speciality: speciality,
		IsActive:   isActive,
		MentorID:   mentorID,
		Page:       page,
		Limit:      perPage,
	}, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	paginate(c, groups, page, perPage, h.pageSize, total)
}

// CreateGroup godoc
// POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req model.CreateGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, group)
}

// GetGroup godoc
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.Get(c.Request.Context(), id, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// ListGroupStudents godoc
// GET /api/v1/groups/:id/students
func (h *GroupHandler) ListGroupStudents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	students, err := h.groupService.Students(c.Request.Context(), id, service.ScopeFor(middleware.GetClaims(c)))
	if err != nil {
		fail(c, err)
		return
	}
	if students == nil {
		students = []model.Student{}
	}

	response.Success(c, http.StatusOK, students)
}

// UpdateGroup godoc
// PATCH /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// DeleteGroup godoc
// DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Group deleted"})
}
