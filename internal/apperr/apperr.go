// Package apperr defines the application error taxonomy shared by the
// codecs, store, and services.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeFormat             = "FORMAT_ERROR"        // structurally unrecognizable input
	CodeCorruptData        = "CORRUPT_DATA"        // recognized structure, invalid required field
	CodeUnsupportedVersion = "UNSUPPORTED_VERSION" // recognized format, unsupported version
	CodeIO                 = "IO_ERROR"            // surfaced from the filesystem
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
)

// Error is an application error with a stable code for callers to branch on.
type Error struct {
	Code    string // one of the Code* constants
	Message string // human-readable message with source context
	Err     error  // wrapped underlying error (optional)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so callers can test against sentinel values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Format creates a FORMAT_ERROR for input that is not the expected format.
func Format(source string, err error) *Error {
	return &Error{
		Code:    CodeFormat,
		Message: fmt.Sprintf("unrecognized format: %s", source),
		Err:     err,
	}
}

// CorruptData creates a CORRUPT_DATA error for a record missing a required
// field that has no safe default. The record index is part of the message
// so it can be surfaced to the user.
func CorruptData(source string, record int, reason string) *Error {
	return &Error{
		Code:    CodeCorruptData,
		Message: fmt.Sprintf("%s: record %d: %s", source, record, reason),
	}
}

// UnsupportedVersion creates an UNSUPPORTED_VERSION error. The codecs never
// guess forward compatibility.
func UnsupportedVersion(source string, version int) *Error {
	return &Error{
		Code:    CodeUnsupportedVersion,
		Message: fmt.Sprintf("%s: unsupported format version %d", source, version),
	}
}

// IO wraps a filesystem error.
func IO(source string, err error) *Error {
	return &Error{
		Code:    CodeIO,
		Message: fmt.Sprintf("i/o failure: %s", source),
		Err:     err,
	}
}

// NotFound creates a NOT_FOUND error for a missing resource.
func NotFound(resource string, id any) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
	}
}

// Validation creates a VALIDATION_ERROR for rejected input.
func Validation(field string, reason string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
	}
}

// CodeOf returns the code of err if it is (or wraps) an *Error, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
