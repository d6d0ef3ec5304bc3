// Package validate checks new item content before anything is sent to the server.
package validate

import (
	"errors"
	"strings"

	"github.com/idilsaglam/todo/internal/model"
)

var (
	ErrBlank     = errors.New("Invalid input!")
	ErrDuplicate = errors.New("Entry already exists.")
)

// Error carries the rejected value. It unwraps to ErrBlank or ErrDuplicate.
type Error struct {
	Value string
	Err   error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// IsBlank reports whether value is empty after trimming whitespace.
func IsBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// IsDuplicate reports whether any item already holds the trimmed value, ignoring case.
func IsDuplicate(value string, items []model.Item) bool {
	v := strings.TrimSpace(value)
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(it.Content), v) {
			return true
		}
	}
	return false
}

// Check runs the blank check, then the duplicate check.
func Check(value string, items []model.Item) error {
	if IsBlank(value) {
		return &Error{Value: value, Err: ErrBlank}
	}
	if IsDuplicate(value, items) {
		return &Error{Value: value, Err: ErrDuplicate}
	}
	return nil
}
