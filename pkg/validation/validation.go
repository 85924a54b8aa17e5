// Package validation collects field level errors so that a request reports every violated
// field at once instead of stopping at the first one.
package validation

import (
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation for field.
func (e *Error) Add(field string, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Check records message for field when ok is false.
func (e *Error) Check(ok bool, field string, message string) {
	if !ok {
		e.Add(field, message)
	}
}

func (e *Error) HasErrors() bool {
	return len(e.Fields) > 0
}

// ErrOrNil returns nil when nothing was recorded, so callers can return it directly.
func (e *Error) ErrOrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}
