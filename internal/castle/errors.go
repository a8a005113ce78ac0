package castle

import (
	"errors"
	"fmt"
)

// APIError reports that the risk service responded with a non-success
// status. Server-side failures (5xx) are recoverable: the caller may
// substitute a failover verdict and proceed. Client-side failures (4xx)
// indicate a broken request or configuration and are fatal.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("castle %s: status %d", e.Operation, e.StatusCode)
}

// Recoverable reports whether the failure may be absorbed by the failover
// policy. Only server-side errors qualify; there is no safe default for a
// request the service actively rejected.
func (e *APIError) Recoverable() bool {
	return e.StatusCode >= 500
}

// TransportError reports that the call never produced a service response:
// network failure, timeout, or an unreadable body. Always fatal; the
// attempt cannot proceed without a real verdict.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("castle %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err is a service failure the failover
// policy may absorb.
func IsRecoverable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Recoverable()
	}
	return false
}
