// Package apperror defines the closed set of error kinds shared by the service layer
// and the HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies one of the domain error classes.
type Kind string

const (
	// KindNotFound means no record matched a lookup or filter.
	KindNotFound Kind = "not_found"
	// KindInvalidDuplicateEntry means a uniqueness constraint was violated on create.
	KindInvalidDuplicateEntry Kind = "invalid_duplicate_entry"
	// KindInternalServerError means a store operation failed for an unclassified reason.
	KindInternalServerError Kind = "internal_server_error"
	// KindForbidden means the subject acted outside their rights.
	KindForbidden Kind = "forbidden"
)

// Stable numeric codes rendered as errorCode.
const (
	CodeNotFound              = 404
	CodeInvalidDuplicateEntry = 409
	CodeInternalServerError   = 500
	CodeForbidden             = 403
)

// Message codes. They are stable identifiers, the Message is free text.
const (
	MessageResourceNotFound = "resource.not_found"
	MessageResourceConflict = "resource.conflict"
	MessageInternal         = "internal.error"
	MessageAuthForbidden    = "auth.forbidden"
	MessageOrdersEmpty      = "orders.empty"
)

// Error is the single error contract produced by services.
type Error struct {
	Kind       Kind
	Code       int
	MessageKey string
	Message    string
	Context    map[string]interface{}
	HTTPStatus int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithMessageKey overrides the message code.
func (e *Error) WithMessageKey(key string) *Error {
	if e == nil {
		return nil
	}
	e.MessageKey = key
	return e
}

// NotFound reports that no record matched. context describes what was searched for.
func NotFound(reason string, context map[string]interface{}) *Error {
	return &Error{
		Kind:       KindNotFound,
		Code:       CodeNotFound,
		MessageKey: MessageResourceNotFound,
		Message:    reason,
		Context:    context,
		HTTPStatus: http.StatusNotFound,
	}
}

// InvalidDuplicateEntry reports a uniqueness violation; message names the offending fields.
func InvalidDuplicateEntry(message string) *Error {
	return &Error{
		Kind:       KindInvalidDuplicateEntry,
		Code:       CodeInvalidDuplicateEntry,
		MessageKey: MessageResourceConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// InternalServerError reports an unclassified failure. The cause is kept for logs only.
func InternalServerError(message string, cause error) *Error {
	return &Error{
		Kind:       KindInternalServerError,
		Code:       CodeInternalServerError,
		MessageKey: MessageInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Forbidden reports an ownership or role violation.
func Forbidden(message string) *Error {
	return &Error{
		Kind:       KindForbidden,
		Code:       CodeForbidden,
		MessageKey: MessageAuthForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
