// Package errors defines the error kinds surfaced by the workflow services.
// Callers match them with errors.Is; wrapped context is added with %w.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrConflict      = fmt.Errorf("conflict")
	ErrInvalidState  = fmt.Errorf("invalid state")
	ErrShapeMismatch = fmt.Errorf("shape mismatch")
	ErrDelivery      = fmt.Errorf("delivery failed")
	ErrForbidden     = fmt.Errorf("forbidden")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is an itemized ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// NewValidationError starts an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{}
}

// Add records a field failure.
func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// Addf records a field failure with a formatted message.
func (v *ValidationError) Addf(field, format string, args ...any) {
	v.Add(field, fmt.Sprintf(format, args...))
}

// Merge appends the fields of other, prefixing each field name.
func (v *ValidationError) Merge(prefix string, other error) {
	var ve *ValidationError
	if !errors.As(other, &ve) {
		if other != nil {
			v.Add(prefix, other.Error())
		}
		return
	}
	for _, f := range ve.Fields {
		name := f.Field
		if prefix != "" {
			name = prefix + "." + name
		}
		v.Add(name, f.Message)
	}
}

// HasErrors reports whether any field was recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// OrNil returns v as an error only when it holds fields.
func (v *ValidationError) OrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (v *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid is a shorthand for a ValidationError with one field.
func Invalid(field, message string) error {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// InvalidState wraps ErrInvalidState with a reason.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
