package common

import (
	"errors"
	"net/http"
)

// Machine-readable error codes surfaced to API clients.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeActorMismatch    = "ACTOR_MISMATCH"
	CodeInvalidState     = "INVALID_STATE"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeDuplicateDispute = "DUPLICATE_DISPUTE"
	CodeAlreadySettled   = "ALREADY_SETTLED"
	CodeZeroSeatsBooked  = "ZERO_SEATS_BOOKED"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeInternal         = "INTERNAL_ERROR"
)

// AppError is a structured application error with an HTTP status and a
// machine-readable code.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with an explicit status and code
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, err)
}

// NewValidationError creates a 400 error with the validation code
func NewValidationError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidationFailed, message, err)
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, err)
}

// NewUnauthorizedError creates a 401 error
func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, nil)
}

// NewActorMismatchError creates a 403 error for a declared role that does not
// match the caller's actual relationship to the booking
func NewActorMismatchError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeActorMismatch, message, nil)
}

// NewInvalidStateError creates a 409 error for an operation that is illegal
// in the current booking or ride status
func NewInvalidStateError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeInvalidState, message, nil)
}

// NewConflictError creates a 409 error with a caller-supplied code
func NewConflictError(code, message string) *AppError {
	return NewAppError(http.StatusConflict, code, message, nil)
}

// NewInternalServerError creates a 500 error
func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, message, nil)
}

// NewInternalError creates a 500 error wrapping a cause
func NewInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, message, err)
}

// AsAppError extracts an *AppError from err's chain, if present
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
