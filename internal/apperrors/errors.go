// Package apperrors defines the typed errors the HTTP layer speaks and
// translates the catalog and settings sentinels into them.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fiercekittenz/gifbot/internal/domain"
)

// ErrorType tags an Error with its HTTP-facing category.
type ErrorType string

const (
	TypeValidation ErrorType = "validation"
	TypeNotFound   ErrorType = "not_found"
	TypeConflict   ErrorType = "conflict"
	TypeInternal   ErrorType = "internal"
)

var statusByType = map[ErrorType]int{
	TypeValidation: http.StatusBadRequest,
	TypeNotFound:   http.StatusNotFound,
	TypeConflict:   http.StatusConflict,
	TypeInternal:   http.StatusInternalServerError,
}

// Error is a categorized error with a client-safe message and optional
// detail fields. The wrapped cause is for logs only, never serialized.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Fields  map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error category to a response code.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithField attaches a detail field to the client response (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// ValidationError rejects malformed input (400).
func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

// NotFoundError reports a missing resource (404).
func NotFoundError(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

// ConflictError reports a clash with existing state (409).
func ConflictError(message string) *Error {
	return &Error{Type: TypeConflict, Message: message}
}

// InternalError wraps an unexpected failure (500). The cause never
// reaches the client.
func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

// FromDomain translates the library and settings sentinel errors into
// typed errors. Anything unrecognized becomes an internal error carrying
// message, with the original error as its cause.
func FromDomain(err error, message string) *Error {
	switch {
	case errors.Is(err, domain.ErrAnimationNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrGroupNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, domain.ErrDuplicateCommand),
		errors.Is(err, domain.ErrDuplicateCategory),
		errors.Is(err, domain.ErrCategoryNotEmpty):
		return ConflictError(err.Error())
	case errors.Is(err, domain.ErrInvalidCommand):
		return ValidationError(err.Error())
	default:
		return InternalError(message, err)
	}
}

// From coerces any error into a typed Error, wrapping unknowns as
// internal. A nil err yields nil.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return InternalError("internal server error", err)
}

// ErrorResponse is the JSON body sent for a failed request.
type ErrorResponse struct {
	Error  string         `json:"error"`
	Type   ErrorType      `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// ToResponse flattens the error for serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Type:   e.Type,
		Fields: e.Fields,
	}
}
