package auditerrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"startDate must be before endDate",
		http.StatusBadRequest,
	)
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date, expected YYYY-MM-DD or RFC3339",
		http.StatusBadRequest,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrInvalidDays = apperror.New(
		apperror.CodeInvalidInput,
		"days must be between 1 and 365",
		http.StatusBadRequest,
	)
	ErrExportFailed = apperror.New(
		apperror.CodeInternalError,
		"failed to build audit export",
		http.StatusInternalServerError,
	)
)
