// ABOUTME: Error types for the reconciliation engine
// ABOUTME: ValidationError marks failures that must never be queued or retried
package engine

import (
	"errors"
	"fmt"
)

// ValidationError means the payload itself is bad. It is never queued for
// retry; during a drain the entry is buried instead.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
