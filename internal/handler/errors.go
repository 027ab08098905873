package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
)

type errorMapping struct {
	target error
	status int
	code   response.ErrCode
}

// errorMappings translates service and repository sentinels to API errors.
// The first match wins, so specific errors come before generic ones.
var errorMappings = []errorMapping{
	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{repository.ErrReferenced, http.StatusConflict, response.ErrDependencyExists},
	{repository.ErrInvalidRelation, http.StatusBadRequest, response.ErrValidation},
	{repository.ErrDuplicateAttendance, http.StatusConflict, response.ErrAttendanceExists},

	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrAccountInactive, http.StatusForbidden, response.ErrAccountInactive},
	{service.ErrTokenExpired, http.StatusUnauthorized, response.ErrTokenExpired},
	{service.ErrTokenInvalid, http.StatusUnauthorized, response.ErrTokenInvalid},
	{service.ErrRefreshRevoked, http.StatusUnauthorized, response.ErrRefreshRevoked},
	{service.ErrPasswordMismatch, http.StatusBadRequest, response.ErrPasswordMismatch},

	{service.ErrRoleHierarchy, http.StatusForbidden, response.ErrRoleHierarchy},
	{service.ErrInvalidSpeciality, http.StatusBadRequest, response.ErrInvalidSpecialty},
	{service.ErrSelfDeactivation, http.StatusBadRequest, response.ErrSelfDeactivation},
	{service.ErrNotYourGroup, http.StatusForbidden, response.ErrNotYourGroup},

	{service.ErrNotAMentor, http.StatusBadRequest, response.ErrNotAMentor},
	{service.ErrSeatsBelowEnrolled, http.StatusBadRequest, response.ErrSeatsBelowCount},
	{service.ErrAlreadyBooked, http.StatusConflict, response.ErrAlreadyBooked},
	{service.ErrGroupFull, http.StatusConflict, response.ErrGroupFull},
	{service.ErrBookingClosed, http.StatusConflict, response.ErrBookingClosed},
	{service.ErrNoBooking, http.StatusBadRequest, response.ErrNoBooking},
	{service.ErrGroupStarted, http.StatusConflict, response.ErrGroupStarted},
	{service.ErrSameGroup, http.StatusBadRequest, response.ErrSameGroup},
	{service.ErrStudentBlocked, http.StatusForbidden, response.ErrAccountInactive},
	{service.ErrNotGroupStudent, http.StatusBadRequest, response.ErrNotGroupStudent},

	{service.ErrInvoicePaid, http.StatusConflict, response.ErrInvoicePaid},
	{service.ErrInvoiceCancelled, http.StatusConflict, response.ErrInvoiceCancelled},
	{service.ErrInvalidTransition, http.StatusConflict, response.ErrInvalidTransition},
	{service.ErrNoGatewayInvoice, http.StatusBadRequest, response.ErrNoGatewayInvoice},
	{service.ErrGatewayUnavailable, http.StatusBadGateway, response.ErrGateway},
	{service.ErrNothingToPay, http.StatusConflict, response.ErrNothingToPay},
	{service.ErrMentorSalary, http.StatusBadRequest, response.ErrMentorSalary},
	{model.ErrInvalidMonth, http.StatusBadRequest, response.ErrInvalidMonth},

	{service.ErrUnsupportedFileType, http.StatusBadRequest, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
}

// duplicateFields names the field behind each unique constraint violation.
var duplicateFields = map[error]string{
	repository.ErrDuplicateEmployeeEmail: "email",
	repository.ErrDuplicateStudentEmail:  "email",
	repository.ErrDuplicatePhone:         "phone",
	repository.ErrDuplicatePassport:      "passport_serial_number",
}

// fail writes the API error for err. Unknown errors are attached to the
// context for the request logger and reported as internal.
func fail(c *gin.Context, err error) {
	var rejected *service.BookingRejectedError
	if errors.As(err, &rejected) {
		status, code := lookup(rejected.Err)
		response.FailWithData(c, status, code, gin.H{"alternative_groups": rejected.Alternatives})
		return
	}

	for sentinel, field := range duplicateFields {
		if errors.Is(err, sentinel) {
			response.FailWithFields(c, http.StatusConflict, response.ErrConflict, map[string]string{field: sentinel.Error()})
			return
		}
	}
	if errors.Is(err, repository.ErrDuplicate) {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}

	status, code := lookup(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Fail(c, status, code)
}

func lookup(err error) (int, response.ErrCode) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// parseID reads a positive integer path parameter. It writes the error
// response itself and returns false when the value is unusable.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// pageParams reads ?page= and ?per_page=, clamping per_page to 100. A zero
// per_page lets the service apply the configured default.
func pageParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.Query("per_page"))
	if perPage < 0 {
		perPage = 0
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// optionalID reads an optional positive integer query parameter. ok is false
// when the value is present but malformed; the error response is written.
func optionalID(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{name: "must be a positive integer"})
		return nil, false
	}
	return &id, true
}

// optionalBool reads an optional boolean query parameter.
func optionalBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{name: "must be true or false"})
		return nil, false
	}
	return &b, true
}

// paginate writes a list response with pagination metadata.
func paginate(c *gin.Context, data interface{}, page, perPage, defaultPerPage, total int) {
	if perPage == 0 {
		perPage = defaultPerPage
	}
	response.SuccessWithPagination(c, http.StatusOK, data, response.NewPagination(page, perPage, total))
}
