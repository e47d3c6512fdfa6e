// ABOUTME: Error classification for remote store failures
// ABOUTME: Separates network-shaped (retryable) errors from hard failures
package store

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransientError marks a network-shaped failure: the submission should stay
// queued and be retried on a later drain.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is a network-shaped failure. Besides
// explicit TransientError wrapping, transport-level timeouts and context
// deadlines also count.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
