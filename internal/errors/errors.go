// Package errors defines the error taxonomy shared by the search and patch
// pipelines.
//
// Resolution and validation errors are raised before any query is built.
// Serialization failures are recovered locally by the serializer. Everything
// else propagates unchanged to the boundary, where HTTPStatus maps it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrTypeNotFound        ErrorType = "not_found"
	ErrTypeValidation      ErrorType = "validation"
	ErrTypeInvalidArgument ErrorType = "invalid_argument"
	ErrTypeSerialization   ErrorType = "serialization"
	ErrTypeExecution       ErrorType = "execution"
	ErrTypeConfig          ErrorType = "config"
	ErrTypeInternal        ErrorType = "internal"
)

// Error represents a structured error with type and optional context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	// Fields names the request fields the error refers to (e.g. empty buckets).
	Fields []string
	// Client marks execution failures caused by the caller's input, such as an
	// unknown table or column.
	Client bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithFields attaches the names of the offending request fields
func (e *Error) WithFields(fields ...string) *Error {
	e.Fields = append(e.Fields, fields...)
	return e
}

// AsClient marks the error as caused by caller input
func (e *Error) AsClient() *Error {
	e.Client = true
	return e
}

// New creates a new structured error
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new structured error with formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type == errType
	}

	return false
}

// GetType returns the error type if it's a structured error
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}

// NotFound reports an entity name that resolved to no registered type.
func NotFound(name string) *Error {
	return Newf(ErrTypeNotFound, "no entity type '%s' found", name)
}

// EmptyFields reports a validation failure naming every empty input.
func EmptyFields(fields ...string) *Error {
	return Newf(ErrTypeValidation, "%s are all null or empty, which is not supported",
		strings.Join(fields, ", ")).WithFields(fields...)
}

// HTTPStatus maps an error to the status code surfaced at the HTTP boundary.
func HTTPStatus(err error) int {
	var structErr *Error
	if !errors.As(err, &structErr) {
		return http.StatusInternalServerError
	}

	switch structErr.Type {
	case ErrTypeNotFound, ErrTypeValidation, ErrTypeInvalidArgument:
		return http.StatusBadRequest
	case ErrTypeExecution:
		if structErr.Client {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
