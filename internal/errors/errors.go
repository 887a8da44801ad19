// Package errors provides coded domain errors for the brick collection.
//
// Storage and codec layers return typed errors; callers match them by code:
//
//	if errors.Is(err, errors.ErrPersistence) {
//	    // the record store could not be written
//	}
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeValidation:
//	        detail, _ := domainErr.Details.(errors.FieldDetail)
//	        fmt.Println(detail.Index, detail.Field)
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeValidation        Code = "VALIDATION"
	CodePersistence       Code = "PERSISTENCE"
	CodeBlobWrite         Code = "BLOB_WRITE"
	CodeBlobRead          Code = "BLOB_READ"
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	CodeMigration         Code = "MIGRATION"
	CodeInternal          Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case CodePersistence, CodeBlobWrite:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// FieldDetail locates the record that failed validation.
// Section is "items" or "externalLinks"; Index is the position within it.
type FieldDetail struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Field   string `json:"field"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists     = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrPersistence       = &Error{Code: CodePersistence, Message: "failed to save data"}
	ErrBlobWrite         = &Error{Code: CodeBlobWrite, Message: "failed to store image"}
	ErrBlobRead          = &Error{Code: CodeBlobRead, Message: "failed to read image"}
	ErrUnsupportedFormat = &Error{Code: CodeUnsupportedFormat, Message: "unsupported file format"}
	ErrMigration         = &Error{Code: CodeMigration, Message: "migration failed"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExistsf creates an already exists error with formatted message.
func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// InvalidField reports a record that failed import validation.
//
//	InvalidField("items", 0, "number", "missing required field")
//	// brick at index 0: missing required field: number
func InvalidField(section string, index int, field, reason string) *Error {
	noun := "brick"
	if section == "externalLinks" {
		noun = "external link"
	}
	msg := fmt.Sprintf("%s at index %d: %s", noun, index, reason)
	if field != "" {
		msg += ": " + field
	}
	return &Error{
		Code:    CodeValidation,
		Message: msg,
		Details: FieldDetail{Section: section, Index: index, Field: field},
	}
}

// Persistence wraps a record store failure.
func Persistence(err error) *Error {
	return &Error{Code: CodePersistence, Message: "failed to save data", cause: err}
}

// BlobWrite wraps a blob store write failure.
func BlobWrite(err error) *Error {
	return &Error{Code: CodeBlobWrite, Message: "failed to store image", cause: err}
}

// BlobRead wraps a blob store read failure.
func BlobRead(err error) *Error {
	return &Error{Code: CodeBlobRead, Message: "failed to read image", cause: err}
}

// UnsupportedFormat creates an unsupported format error naming the rejected input.
func UnsupportedFormat(name string) *Error {
	return &Error{
		Code:    CodeUnsupportedFormat,
		Message: fmt.Sprintf("unsupported file format %q: please use JSON, CSV, or XML", name),
	}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
