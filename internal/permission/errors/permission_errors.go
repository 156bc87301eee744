package permissionerrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrCycleNotFound = apperror.New(
		apperror.CodeNotFound,
		"performance cycle not found",
		http.StatusNotFound,
	)
	ErrCycleNotActive = apperror.New(
		apperror.CodeInvalidState,
		"performance cycle is not active; writes are closed",
		http.StatusConflict,
	)
	ErrRoleNotAllowed = apperror.New(
		apperror.CodeForbidden,
		"your role cannot write to this cycle",
		http.StatusForbidden,
	)
	ErrNotYourTeam = apperror.New(
		apperror.CodeForbidden,
		"you can only act on members of your own team",
		http.StatusForbidden,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrItemLimitExceeded = apperror.New(
		"ITEM_LIMIT_EXCEEDED",
		"evaluation item limit exceeded",
		http.StatusBadRequest,
	)
)
