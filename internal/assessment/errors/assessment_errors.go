package assessmenterrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidItemID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid evaluation item id",
		http.StatusBadRequest,
	)
	ErrInvalidRating = apperror.New(
		apperror.CodeInvalidInput,
		"rating must be between 1 and 5",
		http.StatusBadRequest,
	)
	ErrItemNotFound = apperror.New(
		apperror.CodeNotFound,
		"evaluation item not found",
		http.StatusNotFound,
	)
	ErrItemInactive = apperror.New(
		apperror.CodeInvalidState,
		"evaluation item is inactive",
		http.StatusConflict,
	)
	ErrConcurrentAssessment = apperror.New(
		apperror.CodeConflict,
		"another assessment for this employee and item was saved at the same time; reload and try again",
		http.StatusConflict,
	)
)
