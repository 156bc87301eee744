package evaluationerrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrEvaluationNotFound = apperror.New(
		apperror.CodeNotFound,
		"evaluation not found",
		http.StatusNotFound,
	)
	ErrInvalidEvaluationID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid evaluation id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"periodType and periodDate must be given together, e.g. annual/2025 or quarterly/2025-Q3",
		http.StatusBadRequest,
	)
	ErrInvalidRating = apperror.New(
		apperror.CodeInvalidInput,
		"ratings must be between 1 and 5",
		http.StatusBadRequest,
	)
	ErrDuplicateItem = apperror.New(
		apperror.CodeInvalidInput,
		"each evaluation item may appear only once",
		http.StatusBadRequest,
	)
	ErrUnknownItem = apperror.New(
		apperror.CodeInvalidInput,
		"evaluation item not found or inactive",
		http.StatusBadRequest,
	)
	ErrDeadlinePassed = apperror.New(
		apperror.CodeForbidden,
		"the evaluation deadline for this item has passed",
		http.StatusForbidden,
	)
	ErrEvaluationLocked = apperror.New(
		apperror.CodeInvalidState,
		"completed evaluations can no longer be edited",
		http.StatusConflict,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"this status change is not allowed",
		http.StatusConflict,
	)
	ErrConcurrentSave = apperror.New(
		apperror.CodeConflict,
		"the evaluation was saved by someone else at the same time; reload and try again",
		http.StatusConflict,
	)
	ErrTextRequired = apperror.New(
		apperror.CodeInvalidInput,
		"text is required",
		http.StatusBadRequest,
	)
	ErrImproverDisabled = apperror.New(
		apperror.CodeServiceUnavailable,
		"text improvement is not configured",
		http.StatusServiceUnavailable,
	)
	ErrImproverFailed = apperror.New(
		apperror.CodeServiceUnavailable,
		"text improvement is temporarily unavailable",
		http.StatusServiceUnavailable,
	)
)
