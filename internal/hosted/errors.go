package hosted

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the API key was rejected.
	ErrUnauthorized = errors.New("hosted: unauthorized")
	// ErrUpstreamError covers 5xx responses.
	ErrUpstreamError = errors.New("hosted: upstream error")
	// ErrBadResponse means the body could not be decoded.
	ErrBadResponse = errors.New("hosted: malformed response")
	// ErrUnavailable covers transport failures.
	ErrUnavailable = errors.New("hosted: unavailable")
)

// APIError wraps a sentinel with request context.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("hosted: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Sentinel, e.Err}
	}
	return []error{e.Sentinel}
}
