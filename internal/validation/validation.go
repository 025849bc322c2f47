// Package validation validates request payloads with go-playground/validator
// struct tags, plus a cross-field confirmation check for inputs that carry a
// value together with its confirmation (password / confirmPassword).
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError represents a validation error for a specific field.
// A cross-field violation uses an empty Field: it concerns the object as a
// whole, not either individual field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use json tag names for field names in error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// "username": letters, numbers, dots, underscores and hyphens only.
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Validate validates a struct using its `validate` tags, and, when the input
// implements ConfirmedInput, additionally checks the confirmation pair.
// All violations are aggregated into a single error.
func Validate(s any) error {
	fieldErrors := structErrors(s)

	if ci, ok := s.(ConfirmedInput); ok {
		primary, confirmation, message := ci.ConfirmedPair()
		if !MatchingPair(primary, confirmation) {
			fieldErrors = append(fieldErrors, FieldError{Message: message})
		}
	}

	if len(fieldErrors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Field == "" {
			messages = append(messages, fe.Message)
		} else {
			messages = append(messages, fe.Field+": "+fe.Message)
		}
	}

	appErr := apperrors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{
		"errors": fieldErrors,
	}
	return appErr
}

func structErrors(s any) []FieldError {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Message: "validation failed"}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   e.Field(),
			Message: formatValidationError(e),
		})
	}
	return fieldErrors
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "username":
		return "can only contain letters, numbers, dots, underscores and hyphens"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
