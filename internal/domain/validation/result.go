// Package validation checks inbound question and answer records before they
// are accepted for persistence.
//
// Validators are pure functions of their input: they keep no state between
// calls and are safe for concurrent use. Every violation found in a record is
// reported, each as "<dotted.field.path>: <message>" or just "<message>" when
// the violation concerns the record as a whole.
package validation

import (
	"fmt"
	"log/slog"
	"strings"
)

// Result outcome of a validation call.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	return &Error{Errors: r.Errors}
}

// Error carries every violation found in a rejected record.
type Error struct {
	Errors []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// NewError builds an *Error from preformatted messages.
func NewError(errs ...string) *Error {
	return &Error{Errors: errs}
}

func valid() Result {
	return Result{IsValid: true, Errors: []string{}}
}

// unexpected turns a recovered panic into a single synthetic error.
func unexpected(kind string, r any) Result {
	slog.Error(kind+" validation error", "panic", r)
	return Result{
		IsValid: false,
		Errors:  []string{fmt.Sprintf("An unexpected error occurred during validation: %v", r)},
	}
}
