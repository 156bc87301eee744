package cycleerrors

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
	ErrNoActiveCycle = apperror.New(
		apperror.CodeNotFound,
		"there is no active performance cycle",
		http.StatusNotFound,
	)
	ErrInvalidCycleID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid cycle id",
		http.StatusBadRequest,
	)
	ErrActiveCycleExists = apperror.New(
		apperror.CodeConflict,
		"only one active performance cycle is allowed per company; close the current active cycle first",
		http.StatusConflict,
	)
	ErrCycleNameTaken = apperror.New(
		apperror.CodeConflict,
		"a performance cycle with this name already exists",
		http.StatusConflict,
	)
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"dates must use the YYYY-MM-DD format",
		http.StatusBadRequest,
	)
	ErrEndBeforeStart = apperror.New(
		apperror.CodeInvalidInput,
		"end date must be after start date",
		http.StatusBadRequest,
	)
	ErrStartInPast = apperror.New(
		apperror.CodeInvalidInput,
		"start date cannot be more than 24 hours in the past",
		http.StatusBadRequest,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"status must be one of active, closed, archived",
		http.StatusBadRequest,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"this status change is not allowed",
		http.StatusConflict,
	)
	ErrArchivedReadOnly = apperror.New(
		apperror.CodeInvalidState,
		"archived cycles cannot be modified",
		http.StatusConflict,
	)
	ErrCycleHasDependents = apperror.New(
		apperror.CodeConflict,
		"cycle still owns evaluation data; archive it instead",
		http.StatusConflict,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"periodType must be annual or quarterly and periodDate must match it (2025 or 2025-Q1)",
		http.StatusBadRequest,
	)
	ErrConcurrentUpdate = apperror.New(
		apperror.CodeConflict,
		"another change to cycles happened at the same time, please retry",
		http.StatusConflict,
	)
)
