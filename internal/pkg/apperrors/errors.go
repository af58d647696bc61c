package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrInvalidRequest  ErrorType = "INVALID_REQUEST"
	ErrDuplicate       ErrorType = "DUPLICATE"
	ErrNotFound        ErrorType = "NOT_FOUND"
	ErrPayloadTooLarge ErrorType = "PAYLOAD_TOO_LARGE"
	ErrRateLimited     ErrorType = "RATE_LIMITED"
	ErrInternal        ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application. Message is the
// summary shown to callers; Details become the envelope's error list.
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Details    []string  `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Errors returns the detail list for the response envelope. Internal errors
// without explicit details surface their cause's message.
func (e *AppError) Errors() []string {
	if len(e.Details) > 0 {
		return e.Details
	}
	if e.Cause != nil {
		return []string{e.Cause.Error()}
	}
	return nil
}

func New(errType ErrorType, msg string, cause error, details ...string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Details:    details,
		HTTPStatus: mapTypeToStatus(errType),
		Cause:      cause,
	}
}

func NewInvalidRequest(msg string, details ...string) *AppError {
	return New(ErrInvalidRequest, msg, nil, details...)
}

func NewDuplicate(msg string, details ...string) *AppError {
	return New(ErrDuplicate, msg, nil, details...)
}

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func NewInternal(msg string, cause error) *AppError {
	return New(ErrInternal, msg, cause)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, "internal server error", err)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest, ErrDuplicate:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
