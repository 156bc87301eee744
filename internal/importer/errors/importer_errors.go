package importererrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrInvalidMode = apperror.New(
		apperror.CodeInvalidInput,
		"mode must be strict or partial",
		http.StatusBadRequest,
	)
	ErrFileRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a csv file is required",
		http.StatusBadRequest,
	)
	ErrMalformedCSV = apperror.New(
		apperror.CodeInvalidInput,
		"the file is not valid csv",
		http.StatusBadRequest,
	)
	ErrMissingColumns = apperror.New(
		apperror.CodeInvalidInput,
		"the header row is missing required columns",
		http.StatusBadRequest,
	)
	ErrEmptyFile = apperror.New(
		apperror.CodeInvalidInput,
		"the file has no data rows",
		http.StatusBadRequest,
	)
	ErrTooManyRows = apperror.New(
		apperror.CodeInvalidInput,
		"the file has too many rows",
		http.StatusBadRequest,
	)
	ErrValidationFailed = apperror.New(
		apperror.CodeInvalidInput,
		"the import was rejected; no users were created",
		http.StatusUnprocessableEntity,
	)
)
