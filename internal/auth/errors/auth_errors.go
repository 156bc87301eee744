package autherrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		"AUTH_FAILED",
		"invalid company code, identifier or password",
		http.StatusUnauthorized,
	)
	ErrInactiveAccount = apperror.New(
		"ACCOUNT_INACTIVE",
		"account is inactive",
		http.StatusForbidden,
	)
	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"invalid token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"token expired",
		http.StatusUnauthorized,
	)
	ErrInvalidRefreshToken = apperror.New(
		"INVALID_REFRESH_TOKEN",
		"invalid refresh token",
		http.StatusUnauthorized,
	)
	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"failed to generate token",
		http.StatusInternalServerError,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrUnauthorized = apperror.New(
		apperror.CodeUnauthorized,
		"authentication required",
		http.StatusUnauthorized,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"you do not have permission to access this resource",
		http.StatusForbidden,
	)
)
