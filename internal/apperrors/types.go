package apperrors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies errors for retry and surfacing decisions.
type Kind int

const (
	// KindTransient - retry-able errors (network, 5xx, throttling)
	KindTransient Kind = iota
	// KindAuthoritative - the membership store rejected the mutation;
	// never retried, surfaced to the user
	KindAuthoritative
	// KindProjectionSync - alert-store sync failed after a successful
	// membership mutation; logged, never surfaced as the operation error
	KindProjectionSync
)

// AuthoritativeError is a definitive rejection from a store: capacity
// reached, wrong status, missing authorization. The caller must not retry
// and must show the failure to the user.
type AuthoritativeError struct {
	Op         string // operation name, e.g. "approveMembership"
	StatusCode int    // HTTP status code if applicable
	Detail     string // server-provided detail message, may be empty
}

func (e *AuthoritativeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("%s: rejected with status %d", e.Op, e.StatusCode)
}

// UserMessage returns the text to show in a blocking dialog: the server
// detail when present, otherwise a generic message.
func (e *AuthoritativeError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "The request could not be completed. Please try again later."
}

// TransientError represents an error that can be retried.
type TransientError struct {
	Op         string
	Err        error
	StatusCode int // HTTP status code if applicable, 0 for transport errors
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: transient status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: transient error: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ProjectionSyncError records a failed alert-store update after the
// membership mutation already succeeded. Membership is authoritative, so
// this never fails the operation; it is carried on the outcome instead.
type ProjectionSyncError struct {
	Stage   string // "fetch", "correlate", "respond", "read"
	AlertID string // empty when the failure precedes correlation
	Err     error
}

func (e *ProjectionSyncError) Error() string {
	if e.AlertID != "" {
		return fmt.Sprintf("alert sync (%s, alert %s): %v", e.Stage, e.AlertID, e.Err)
	}
	return fmt.Sprintf("alert sync (%s): %v", e.Stage, e.Err)
}

func (e *ProjectionSyncError) Unwrap() error {
	return e.Err
}

// IsAuthoritative reports whether err is a definitive store rejection.
func IsAuthoritative(err error) bool {
	var ae *AuthoritativeError
	return errors.As(err, &ae)
}

// IsTransient reports whether err may be retried.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

// IsProjectionSync reports whether err is a secondary-projection failure.
func IsProjectionSync(err error) bool {
	var pe *ProjectionSyncError
	return errors.As(err, &pe)
}

// FromStatus maps a non-2xx HTTP response to the taxonomy. Throttling and
// server-side failures are transient; every other 4xx is an authoritative
// rejection carrying the server detail.
func FromStatus(op string, statusCode int, detail string) error {
	switch {
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooManyRequests,
		statusCode >= 500:
		return &TransientError{
			Op:         op,
			Err:        fmt.Errorf("server returned %d", statusCode),
			StatusCode: statusCode,
		}
	default:
		return &AuthoritativeError{Op: op, StatusCode: statusCode, Detail: detail}
	}
}

// FromTransport wraps a failed round trip (DNS, connect, timeout) as
// transient.
func FromTransport(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}
