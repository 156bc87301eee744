package apperror

import "fmt"

type AppError struct {
	Code       string // Error code (e.g., INVALID_INPUT)
	Message    string // User-friendly message
	HTTPStatus int    // HTTP status code
	Details    any    // Optional structured payload returned to the client
	Err        error  // Wrapped original error (optional)

	sentinel *AppError
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements errors.Unwrap interface for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by code and message so that copies produced by
// WithDetails or WithMessage still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.HTTPStatus == t.HTTPStatus && (e.Message == t.Message || e.sentinel == t)
}

// New creates a new AppError without wrapping
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        nil,
	}
}

// Wrap creates an AppError that wraps an existing error
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails returns a copy of e carrying details for the response body.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	cp.sentinel = e.root()
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	cp.sentinel = e.root()
	return &cp
}

func (e *AppError) root() *AppError {
	if e.sentinel != nil {
		return e.sentinel
	}
	return e
}
