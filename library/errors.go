package library

import (
	"errors"
	"fmt"
)

// Code classifies a catalog failure.
type Code string

const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodePrecondition   Code = "PRECONDITION_FAILED"
	CodeValidation     Code = "VALIDATION"
	CodeMalformedInput Code = "MALFORMED_INPUT"
)

// Error is a catalog error. Two errors match under errors.Is when their codes
// are equal, so callers branch on the sentinels below.
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "already exists"}
	ErrPrecondition   = &Error{Code: CodePrecondition, Message: "precondition failed"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrMalformedInput = &Error{Code: CodeMalformedInput, Message: "malformed input"}
)

func notFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func precondition(format string, args ...any) *Error {
	return &Error{Code: CodePrecondition, Message: fmt.Sprintf(format, args...)}
}

func malformed(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeMalformedInput, Message: fmt.Sprintf(format, args...), cause: cause}
}
