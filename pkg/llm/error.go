package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRetryable matches any RetryableError with errors.Is.
var ErrRetryable = errors.New("retryable generation error")

// RetryableError marks a transient failure (rate limiting, overload, network).
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retryable generation error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("retryable generation error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

func (e *RetryableError) Is(target error) bool {
	return target == ErrRetryable
}

// IsRetryable reports whether err is a transient generation failure.
// Everything else is terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

// RetryableStatus reports whether an HTTP status indicates a transient
// provider failure.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= http.StatusInternalServerError
}
