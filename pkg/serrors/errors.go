package serrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	CodeFieldRequired = "FIELD_REQUIRED"
	CodeValidation    = "VALIDATION_FAILED"
	CodePrecondition  = "PRECONDITION_FAILED"
)

// BaseError is an error with a stable machine-readable code.
type BaseError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	LocaleKey string `json:"locale_key,omitempty"`
	Field     string `json:"field,omitempty"`
}

func (e *BaseError) Error() string {
	return e.Message
}

// Is matches any *BaseError with the same code.
func (e *BaseError) Is(target error) bool {
	var t *BaseError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func NewFieldRequiredError(field, localeKey string) *BaseError {
	return &BaseError{
		Code:      CodeFieldRequired,
		Message:   fmt.Sprintf("%s is required", field),
		LocaleKey: localeKey,
		Field:     field,
	}
}

func NewPreconditionError(message string) *BaseError {
	return NewError(CodePrecondition, message, "")
}

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, v[f])
	}
	return strings.Join(parts, "; ")
}

// AsError wraps non-empty validation errors into a BaseError.
func (v ValidationErrors) AsError() error {
	if len(v) == 0 {
		return nil
	}
	return &BaseError{
		Code:    CodeValidation,
		Message: v.Error(),
	}
}

// ProcessValidatorErrors converts validator output into ValidationErrors.
// fieldName maps the struct field to a display name; an empty result keeps the struct field name.
func ProcessValidatorErrors(errs validator.ValidationErrors, fieldName func(string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		if fieldName != nil {
			if n := fieldName(fe.Field()); n != "" {
				name = n
			}
		}
		out[fe.Field()] = messageFor(name, fe)
	}
	return out
}

func messageFor(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
