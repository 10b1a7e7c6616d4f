package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrArgumentCountMismatch signals parallel argument lists of different lengths.
	ErrArgumentCountMismatch = errors.New("argument count mismatch")
	// ErrUnsupportedEnvironment signals a path-based upload without filesystem access.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
	// ErrInvalidUpload signals an upload that is neither path-based nor reader-based.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrInvalidArgument signals a malformed caller argument.
	ErrInvalidArgument = errors.New("invalid argument")
)

// StatusError is returned when the service answers with a non-2xx status.
// Body and Detail are only populated for buffered responses.
type StatusError struct {
	StatusCode int
	Body       []byte
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Detail)
	}
	if len(e.Body) > 0 {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError wraps a network-level failure (refused, reset, timeout, cancel).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
