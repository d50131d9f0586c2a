package audius

import (
	"errors"
	"fmt"
)

// APIError is the base of every error returned by this package. The more
// specific InitializationError and SearchError unwrap to it, so
// errors.As(err, new(*APIError)) matches any failure from the client.
type APIError struct {
	Op      string
	Message string
	Status  int // HTTP status, 0 when no response was received
	Cause   error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("audius %s: %s: %v", e.Op, msg, e.Cause)
	}
	return fmt.Sprintf("audius %s: %s", e.Op, msg)
}

func (e *APIError) Unwrap() error { return e.Cause }

// InitializationError indicates the API host could not be resolved: the
// discovery request kept failing or its response was unusable.
type InitializationError struct {
	APIError
}

func (e *InitializationError) Unwrap() error { return &e.APIError }

// SearchError indicates a request against the resolved host failed, its
// response was malformed, or its parameters were rejected before sending.
type SearchError struct {
	APIError
}

func (e *SearchError) Unwrap() error { return &e.APIError }

// ValidationError describes a rejected parameter. The client returns it
// wrapped in a SearchError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsInitialization reports whether err is an InitializationError.
func IsInitialization(err error) bool {
	var target *InitializationError
	return errors.As(err, &target)
}

// IsSearch reports whether err is a SearchError.
func IsSearch(err error) bool {
	var target *SearchError
	return errors.As(err, &target)
}

// IsValidation reports whether err was caused by a rejected parameter.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newInitializationError(msg string, status int, cause error) *InitializationError {
	return &InitializationError{APIError{Op: "discovery", Message: msg, Status: status, Cause: cause}}
}

func newSearchError(op, msg string, status int, cause error) *SearchError {
	return &SearchError{APIError{Op: op, Message: msg, Status: status, Cause: cause}}
}

func invalidParams(op string, err error) *SearchError {
	return newSearchError(op, "invalid parameters", 0, err)
}

// statusError is an attempt-level failure for a non-2xx response.
type statusError struct {
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected HTTP %d", e.Status)
}

// retryable reports whether another attempt could plausibly succeed.
// Server errors, timeouts and throttling qualify; other client errors
// describe a request that will never succeed.
func (e *statusError) retryable() bool {
	switch {
	case e.Status >= 500:
		return true
	case e.Status == 408, e.Status == 429:
		return true
	default:
		return false
	}
}
