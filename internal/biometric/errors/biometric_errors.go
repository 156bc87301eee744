package biometricerrors

import (
	"net/http"

	"performa/internal/shared/apperror"
)

var (
	ErrCredentialNotFound = apperror.New(
		apperror.CodeNotFound,
		"biometric credential not found",
		http.StatusNotFound,
	)
	ErrInvalidCredentialID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid credential id",
		http.StatusBadRequest,
	)
	ErrNoCredentials = apperror.New(
		"BIOMETRIC_NOT_REGISTERED",
		"no biometric credential is registered for this account",
		http.StatusBadRequest,
	)
	ErrSessionExpired = apperror.New(
		"BIOMETRIC_SESSION_EXPIRED",
		"biometric session expired, please start again",
		http.StatusBadRequest,
	)
	ErrCredentialExists = apperror.New(
		apperror.CodeConflict,
		"this authenticator is already registered",
		http.StatusConflict,
	)
	ErrVerificationFailed = apperror.New(
		"BIOMETRIC_FAILED",
		"biometric verification failed",
		http.StatusUnauthorized,
	)
	ErrCloneDetected = apperror.New(
		"BIOMETRIC_CLONE_WARNING",
		"authenticator signature counter went backwards; credential disabled",
		http.StatusUnauthorized,
	)
)
