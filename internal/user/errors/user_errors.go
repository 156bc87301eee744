package usererrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrEmailAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"A user with this email already exists in the company",
		http.StatusConflict,
	)

	ErrUsernameAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"A user with this username already exists in the company",
		http.StatusConflict,
	)

	ErrPersonIDAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"A user with this person ID already exists in the company",
		http.StatusConflict,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid user ID",
		http.StatusBadRequest,
	)

	ErrEmailRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Email is required for office users",
		http.StatusBadRequest,
	)

	ErrUsernameRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Username is required for operational users",
		http.StatusBadRequest,
	)

	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"Role must be one of employee, manager, hr",
		http.StatusBadRequest,
	)

	ErrInvalidUserType = apperror.New(
		apperror.CodeInvalidInput,
		"User type must be office or operational",
		http.StatusBadRequest,
	)

	ErrManagerNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"Manager must be an active user of the same company",
		http.StatusBadRequest,
	)

	ErrSelfManager = apperror.New(
		apperror.CodeInvalidInput,
		"A user cannot be their own manager",
		http.StatusBadRequest,
	)

	ErrManagerCycle = apperror.New(
		apperror.CodeInvalidInput,
		"Manager assignment would create a reporting cycle",
		http.StatusBadRequest,
	)

	ErrHasActiveReports = apperror.New(
		apperror.CodeConflict,
		"User still has active direct reports; reassign them first",
		http.StatusConflict,
	)

	ErrCannotDeleteSelf = apperror.New(
		apperror.CodeInvalidInput,
		"You cannot delete your own account",
		http.StatusBadRequest,
	)

	ErrWrongPassword = apperror.New(
		apperror.CodeInvalidInput,
		"Current password is incorrect",
		http.StatusBadRequest,
	)

	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"You can only view your own team",
		http.StatusForbidden,
	)
)
