package plaso

import (
	"errors"
	"fmt"
)

// ErrTokenRejected marks an authentication failure: the platform answered but
// refused the access token. Transport faults never map to it.
var ErrTokenRejected = errors.New("access token rejected")

// ErrNoChapterDir is returned when a course carries no chapter directory
// reference and its chapters cannot be listed.
var ErrNoChapterDir = errors.New("course has no chapter directory")

// StatusError reports a non-200 HTTP response from the platform.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Is allows for error checking with errors.Is()
func (e *StatusError) Is(target error) bool {
	_, ok := target.(*StatusError)
	return ok
}

// APIError reports a well-formed platform response whose envelope code is
// non-zero.
type APIError struct {
	Code int
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("platform error code %d", e.Code)
}

// Is allows for error checking with errors.Is()
func (e *APIError) Is(target error) bool {
	_, ok := target.(*APIError)
	return ok
}

// isAuthFailure reports whether err looks like the platform refusing the
// token rather than a transport fault.
func isAuthFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == 401 || statusErr.StatusCode == 403
	}
	return false
}

// IsSessionExpired reports whether err means the platform no longer accepts
// the stored token and the user has to log in again.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrTokenRejected) || isAuthFailure(err)
}
