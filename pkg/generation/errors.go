package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// HTTPError is a non-2xx answer from a provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// InvalidOutputError is a completion that is not a valid record.
// The model may do better on the next attempt, so it is retried.
type InvalidOutputError struct {
	Err error
}

func (e *InvalidOutputError) Error() string { return "invalid output: " + e.Err.Error() }

func (e *InvalidOutputError) Unwrap() error { return e.Err }

// Retryable classifies provider errors. Network errors, including
// per-request client timeouts, are retried; bare context errors are not.
// Cancellation of the caller's context is decided by Generate.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	var invalid *InvalidOutputError
	if errors.As(err, &invalid) {
		return true
	}
	var netErr net.Error
	// context.DeadlineExceeded is itself a net.Error.
	if errors.As(err, &netErr) && netErr != context.DeadlineExceeded {
		if netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	return false
}
