// Package validation holds the field checks shared by the write paths and
// the public subscribe endpoint.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidButtonLink = errors.New("button link must be a root-relative path, a mailto: address or an http(s) URL")
	ErrInvalidURL        = errors.New("value must be a valid http or https URL")
)

const mailtoPrefix = "mailto:"

var validate = newValidator()

// newValidator reports struct field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateEmail checks that s has a local-part@domain shape. It does not trim
// or lowercase; callers normalize first.
func ValidateEmail(s string) error {
	if s == "" {
		return ErrInvalidEmail
	}
	if err := validate.Var(s, "email,max=254"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateButtonLink accepts an empty link, a root-relative path, a mailto:
// link whose address contains "@", or an absolute http/https URL.
func ValidateButtonLink(s string) error {
	switch {
	case s == "":
		return nil
	case strings.HasPrefix(s, "/"):
		return nil
	case strings.HasPrefix(s, mailtoPrefix):
		address := strings.TrimPrefix(s, mailtoPrefix)
		if address == "" || !strings.Contains(address, "@") {
			return ErrInvalidButtonLink
		}
		return nil
	}

	if err := ValidateHTTPURL(s); err != nil {
		return ErrInvalidButtonLink
	}
	return nil
}

// ValidateHTTPURL checks that s is an absolute http or https URL with a host.
func ValidateHTTPURL(s string) error {
	if s == "" {
		return ErrInvalidURL
	}
	if err := validate.Var(s, "http_url"); err != nil {
		return ErrInvalidURL
	}
	return nil
}

// Struct validates v against its `validate` struct tags.
func Struct(v any) error {
	return validate.Struct(v)
}
