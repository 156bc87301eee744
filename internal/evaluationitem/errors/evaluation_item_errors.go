package evaluationitemerrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrItemNotFound = apperror.New(
		apperror.CodeNotFound,
		"evaluation item not found",
		http.StatusNotFound,
	)
	ErrInvalidItemID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid evaluation item id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidType = apperror.New(
		apperror.CodeInvalidInput,
		"type must be okr or competency",
		http.StatusBadRequest,
	)
	ErrInvalidLevel = apperror.New(
		apperror.CodeInvalidInput,
		"level must be company, department or manager",
		http.StatusBadRequest,
	)
	ErrAssignedToRequired = apperror.New(
		apperror.CodeInvalidInput,
		"assignedTo is required for department and manager level items",
		http.StatusBadRequest,
	)
	ErrTargetingConflict = apperror.New(
		apperror.CodeInvalidInput,
		"an item targets either a department or manager through assignedTo, or individual employees, not both",
		http.StatusBadRequest,
	)
	ErrCompanyLevelIndividual = apperror.New(
		apperror.CodeInvalidInput,
		"company level items already apply to every employee and cannot be assigned individually",
		http.StatusBadRequest,
	)
	ErrInvalidDeadline = apperror.New(
		apperror.CodeInvalidInput,
		"deadline must be an RFC 3339 timestamp or a YYYY-MM-DD date",
		http.StatusBadRequest,
	)
	ErrCompanyLevelHROnly = apperror.New(
		apperror.CodeForbidden,
		"only HR can manage company level items",
		http.StatusForbidden,
	)
	ErrCannotManageItem = apperror.New(
		apperror.CodeForbidden,
		"you cannot manage this evaluation item",
		http.StatusForbidden,
	)
	ErrEmployeeNotManaged = apperror.New(
		apperror.CodeForbidden,
		"you can only target your own direct reports",
		http.StatusForbidden,
	)
	ErrNotIndividualItem = apperror.New(
		apperror.CodeInvalidState,
		"only individually targeted items accept assignments",
		http.StatusConflict,
	)
	ErrItemInactive = apperror.New(
		apperror.CodeInvalidState,
		"evaluation item is inactive",
		http.StatusConflict,
	)
	ErrAssignmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee is not assigned to this item",
		http.StatusNotFound,
	)
	ErrAssignmentExists = apperror.New(
		apperror.CodeConflict,
		"employee is already assigned to this item",
		http.StatusConflict,
	)
	ErrConcurrentUpdate = apperror.New(
		apperror.CodeConflict,
		"another change to evaluation items happened at the same time, please retry",
		http.StatusConflict,
	)
)
