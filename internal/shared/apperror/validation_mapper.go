package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// recipient_phone -> Recipient Phone
func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")

	caser := cases.Title(language.English)
	return caser.String(s)
}

func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		details := FieldErrors(errs)
		first := errs[0]
		humanReadableField := formatFieldName(first.Field())

		switch first.Tag() {
		case "required", "required_if":
			return RequiredField(humanReadableField).WithDetails(details)
		default:
			return InvalidField(humanReadableField).WithDetails(details)
		}
	}

	return New(
		CodeInvalidInput,
		"Invalid input",
		http.StatusBadRequest,
	).WithDetails(err.Error())
}

// FieldErrors flattens validator errors into field/message pairs.
func FieldErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		field := formatFieldName(e.Field())
		msg := field + " is invalid"
		switch e.Tag() {
		case "required", "required_if":
			msg = field + " is required"
		case "email":
			msg = field + " must be a valid email"
		case "oneof":
			msg = field + " must be one of: " + e.Param()
		case "min", "gte":
			msg = field + " must be at least " + e.Param()
		case "max", "lte":
			msg = field + " must be at most " + e.Param()
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}
