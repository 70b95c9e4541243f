package githubclient

import (
	"errors"
	"fmt"
	"net/http"
)

// TerminalError is a non-retryable HTTP failure: 401, 404, 422, or a 403
// that was not classified as rate limiting. It is surfaced immediately
// without consuming further attempts.
type TerminalError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *TerminalError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github: %s returned %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github: %s returned %d", e.Path, e.StatusCode)
}

// RateLimitedError indicates the rate-limit budget stayed exhausted for the
// whole attempt budget.
type RateLimitedError struct {
	Path     string
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("github: %s rate limited after %d attempts", e.Path, e.Attempts)
}

// TransientError indicates a connection failure or retryable status that
// survived every attempt.
type TransientError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("github: %s failed after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a terminal 404. Collectors use it to
// encode expected absence as data instead of an error.
func IsNotFound(err error) bool {
	var terminal *TerminalError
	return errors.As(err, &terminal) && terminal.StatusCode == http.StatusNotFound
}
