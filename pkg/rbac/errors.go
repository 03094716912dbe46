package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// Denial taxonomy. The engine never recovers from a denial; every error
// propagates verbatim to the boundary layer for translation into the
// transport response.
var (
	// ErrUnauthenticated means no (or invalid) credentials were presented.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden means the authenticated actor lacks the required
	// relationship to the target.
	ErrForbidden = errors.New("permission denied")

	// ErrNotFound means the record does not exist — or must appear not to
	// exist, as with soft-deleted records read by non-superusers.
	ErrNotFound = errors.New("not found")

	// ErrMethodNotSupported means the action is not defined for the
	// resource at all.
	ErrMethodNotSupported = errors.New("method not supported")
)

// ValidationError reports a rejected write: illegal field changes or a
// constraint violation. It is recoverable by resubmitting without the
// offending fields and is deliberately distinct from ErrForbidden.
type ValidationError struct {
	Reason string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

// NewValidationError builds a ValidationError for the given fields.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Reason: reason, Fields: fields}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
