// Package apierrors provides a structured application error type used by
// internal/datastore, with an HTTP status mapping per error category. It
// is ambient infrastructure: pkg/audit's engine never throws these (its
// async contract is fire-and-forget — see errors.go in that package), but
// the reference AuditStore does; the CLI commands that call into it pass
// those errors on wrapped with fmt.Errorf.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorType categorizes an AppError for HTTP status mapping and safe
// external messaging.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation: http.StatusBadRequest,
	ErrorTypeAuth:       http.StatusUnauthorized,
	ErrorTypeNotFound:   http.StatusNotFound,
	ErrorTypeConflict:   http.StatusConflict,
	ErrorTypeTimeout:    http.StatusRequestTimeout,
	ErrorTypeRateLimit:  http.StatusTooManyRequests,
	ErrorTypeDatabase:   http.StatusInternalServerError,
	ErrorTypeNetwork:    http.StatusInternalServerError,
	ErrorTypeInternal:   http.StatusInternalServerError,
}

// AppError is a structured error carrying an ErrorType, a caller-facing
// Message, an HTTP StatusCode derived from Type, optional Details, and an
// optional wrapped Cause.
type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Details    string
	Cause      error
}

// New creates an AppError with StatusCode derived from typ.
func New(typ ErrorType, message string) *AppError {
	return &AppError{Type: typ, Message: message, StatusCode: statusByType[typ]}
}

// Wrap creates an AppError around cause.
func Wrap(cause error, typ ErrorType, message string) *AppError {
	e := New(typ, message)
	e.Cause = cause
	return e
}

// Wrapf is Wrap with a formatted message.
func Wrapf(cause error, typ ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(cause, typ, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails sets Details in place and returns e for chaining.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithDetailsf is WithDetails with a formatted string.
func (e *AppError) WithDetailsf(format string, args ...interface{}) *AppError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// Predefined constructors for common cases.

func NewValidationError(message string) *AppError { return New(ErrorTypeValidation, message) }

func NewDatabaseError(op string, cause error) *AppError {
	return Wrapf(cause, ErrorTypeDatabase, "database operation failed: %s", op)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewAuthError(message string) *AppError { return New(ErrorTypeAuth, message) }

func NewTimeoutError(op string) *AppError {
	return New(ErrorTypeTimeout, fmt.Sprintf("operation timed out: %s", op))
}

func NewConflictError(message string) *AppError { return New(ErrorTypeConflict, message) }

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == typ
}

// GetType returns err's ErrorType, or ErrorTypeInternal if err is not an
// *AppError.
func GetType(err error) ErrorType {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode returns err's HTTP status code, or 500 if err is not an
// *AppError.
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ErrorMessages holds the canned, safe-to-expose messages for error
// types whose Message may contain internal detail.
var ErrorMessages = struct {
	ResourceNotFound        string
	AuthenticationFailed    string
	OperationTimeout        string
	RateLimitExceeded       string
	ConcurrentModification  string
}{
	ResourceNotFound:       "The requested resource was not found",
	AuthenticationFailed:   "Authentication failed",
	OperationTimeout:       "The operation timed out",
	RateLimitExceeded:      "Rate limit exceeded",
	ConcurrentModification: "The resource was modified concurrently",
}

// SafeErrorMessage returns a message safe to return to an external
// caller: validation messages pass through verbatim (they describe the
// caller's own bad input), other known types map to a canned message,
// and unknown error types collapse to a generic message that leaks no
// internals.
func SafeErrorMessage(err error) string {
	appErr, ok := err.(*AppError)
	if !ok {
		return "An unexpected error occurred"
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return appErr.Message
	case ErrorTypeNotFound:
		return ErrorMessages.ResourceNotFound
	case ErrorTypeAuth:
		return ErrorMessages.AuthenticationFailed
	case ErrorTypeTimeout:
		return ErrorMessages.OperationTimeout
	case ErrorTypeRateLimit:
		return ErrorMessages.RateLimitExceeded
	case ErrorTypeConflict:
		return ErrorMessages.ConcurrentModification
	default:
		return "An internal error occurred"
	}
}

// LogFields renders err as a structured field map suitable for
// slog.Logger.With(...) style attachment.
func LogFields(err error) map[string]interface{} {
	fields := map[string]interface{}{"error": err.Error()}
	appErr, ok := err.(*AppError)
	if !ok {
		return fields
	}
	fields["error_type"] = string(appErr.Type)
	fields["status_code"] = appErr.StatusCode
	if appErr.Details != "" {
		fields["error_details"] = appErr.Details
	}
	if appErr.Cause != nil {
		fields["underlying_error"] = appErr.Cause.Error()
	}
	return fields
}

// Chain combines multiple errors (ignoring nils) into one error whose
// message joins each constituent with " -> ". It returns nil if every
// argument is nil, and returns the sole non-nil error unchanged if there
// is exactly one.
func Chain(errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		parts := make([]string, len(nonNil))
		for i, e := range nonNil {
			parts[i] = e.Error()
		}
		return fmt.Errorf("%s", strings.Join(parts, " -> "))
	}
}
