package harvest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")

	// ErrNotImage marks a response whose declared content type is not image/*.
	ErrNotImage = errors.New("not an image")
)

// ErrTimeout indicates a request that did not complete in time.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string { return "timeout: " + e.Err.Error() }
func (e ErrTimeout) Unwrap() error { return e.Err }

// ErrConnection indicates a dial or socket level failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string { return "connection: " + e.Err.Error() }
func (e ErrConnection) Unwrap() error { return e.Err }

// StatusError is a response outside the 2xx range.
type StatusError struct {
	Code int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// Is lets callers match the common statuses with errors.Is.
func (e StatusError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.Code == http.StatusForbidden
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrRateLimited:
		return e.Code == http.StatusTooManyRequests
	}
	return false
}

// ErrorType maps err to a short label used in logs and metrics.
func ErrorType(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}

	if errors.Is(err, ErrNotImage) {
		return "not_image"
	}

	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}

	var status StatusError
	if errors.As(err, &status) {
		switch {
		case errors.Is(status, ErrForbidden):
			return "forbidden"
		case errors.Is(status, ErrNotFound):
			return "not_found"
		case errors.Is(status, ErrRateLimited):
			return "rate_limited"
		}
		if status.Code >= 500 {
			return "server_error"
		}
		return "status"
	}

	return "other"
}

func classifyError(err error, statusCode int) error {
	if err == nil {
		if statusCode == 0 {
			return nil
		}
		return StatusError{Code: statusCode}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	return err
}
