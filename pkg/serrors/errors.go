package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BaseError is the platform-wide coded error. Code is stable and machine
// matchable; Message is the human-readable default rendering.
type BaseError struct {
	Code    string
	Message string
	Details string
}

func NewError(code, message, details string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

// ValidationErrors maps DTO field names to coded errors.
type ValidationErrors map[string]*BaseError

func NewFieldRequiredError(field string) *BaseError {
	return &BaseError{
		Code:    "VALIDATION_REQUIRED",
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidFieldError(field, tag string) *BaseError {
	return &BaseError{
		Code:    "VALIDATION_INVALID",
		Message: fmt.Sprintf("%s is invalid (%s)", field, tag),
	}
}

// ProcessValidatorErrors converts validator.ValidationErrors into coded field
// errors keyed by struct field name.
func ProcessValidatorErrors(errs validator.ValidationErrors, details func(field string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, err := range errs {
		field := err.Field()
		var be *BaseError
		switch err.Tag() {
		case "required":
			be = NewFieldRequiredError(field)
		default:
			be = NewInvalidFieldError(field, err.Tag())
		}
		if details != nil {
			be.Details = details(field)
		}
		out[field] = be
	}
	return out
}

// Messages flattens validation errors to plain field → message pairs for API
// responses.
func (v ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(v))
	for field, err := range v {
		out[field] = err.Message
	}
	return out
}
