package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// V is the singleton validator instance
var V *validator.Validate

func init() {
	V = validator.New()

	// Report field names the way they appear on the wire
	V.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, fmt.Sprintf("%s %s", err.Field, err.Message))
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a struct against its validate tags and returns
// ValidationErrors when any field fails
func Validate(v any) error {
	err := V.Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Nil pointers and non-struct values have nothing to check
		return nil
	}

	out := make(ValidationErrors, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: fieldMessage(e),
		})
	}
	return out
}

// fieldMessage returns a human-readable message for a failed tag
func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		switch e.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", e.Param())
		case reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("must have at least %s entries", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		switch e.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters", e.Param())
		case reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("must have at most %s entries", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "alpha":
		return "must contain only letters"
	case "alphanum", "alphanumunicode":
		return "must contain only letters and digits"
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}

// IsValidationError checks if an error is a ValidationErrors
func IsValidationError(err error) bool {
	_, ok := err.(ValidationErrors)
	return ok
}
