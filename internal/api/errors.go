package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the server answers with a non-2xx status.
// ListItems may return it together with items decoded from the response body.
type StatusError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	RequestID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s: %d %s", e.Op, e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// DecodeError means the response body was not the shape we expect.
type DecodeError struct {
	Op      string
	Path    string // JSON pointer style location inside the body, if known
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: decode response at %s: %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: decode response: %s", e.Op, e.Message)
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
