package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"skybound/internal/domain"
	"skybound/internal/validation"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrMalformedBody is returned by DecodeAndValidate when the body is not
// valid JSON for the target type.
var ErrMalformedBody = errors.New("malformed request body")

// DecodeAndValidate decodes the JSON request body into v and checks its
// `validate` tags. Decode failures wrap ErrMalformedBody; tag failures are
// returned as validator.ValidationErrors.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(ErrMalformedBody, err)
	}
	return validation.Struct(v)
}

// FormatValidationErrors converts validator errors to field errors
func FormatValidationErrors(err error) []domain.FieldError {
	var fields []domain.FieldError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields = append(fields, domain.FieldError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return fields
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "http_url", "url":
		return "Invalid URL"
	case "uuid", "uuid4":
		return "Invalid identifier"
	case "oneof":
		return "Value must be one of: " + e.Param()
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	default:
		return "Invalid value"
	}
}
