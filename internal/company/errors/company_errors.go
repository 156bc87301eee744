package companyerrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrCompanyNotFound = apperror.New(
		apperror.CodeNotFound,
		"Company not found",
		http.StatusNotFound,
	)

	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid company ID",
		http.StatusBadRequest,
	)

	ErrCompanyInactive = apperror.New(
		apperror.CodeForbidden,
		"Company is inactive",
		http.StatusForbidden,
	)
)
