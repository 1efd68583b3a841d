// Package errs defines the error taxonomy shared by the pipeline packages.
// Callers discriminate with errors.As; the HTTP layer maps each type to a status code.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates a malformed request: a missing role, a wrong
// column type, an unknown method or chart kind.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PreconditionError indicates the request was well formed but the data
// cannot support it (constant column, too few paired points, too many categories).
type PreconditionError struct {
	Columns []string
	Message string
}

func (e *PreconditionError) Error() string {
	if len(e.Columns) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Columns, ", "), e.Message)
}

// NotFoundError indicates a referenced project or column does not exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Validation creates a ValidationError with a formatted message.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Precondition creates a PreconditionError naming the offending columns.
func Precondition(columns []string, format string, args ...any) *PreconditionError {
	return &PreconditionError{Columns: columns, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a NotFoundError.
func NotFound(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}

// ColumnNotFound is shorthand for a missing column.
func ColumnNotFound(name string) *NotFoundError { return NotFound("column", name) }

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPrecondition reports whether err wraps a PreconditionError.
func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}
