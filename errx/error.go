package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// SystemErrorMessage is the user-facing fallback when internal errors occur.
const SystemErrorMessage = "internal server error"

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

func BadRequest(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: message}
}

// Invalid turns a validation error into a 400 carrying its own text.
func Invalid(err error) *AppError {
	return &AppError{Err: err, Status: http.StatusBadRequest, Message: err.Error()}
}

// Upstream wraps a failure of a third-party service.
func Upstream(err error, message string) *AppError {
	return &AppError{Err: err, Status: http.StatusBadGateway, Message: message}
}

// Status reports the HTTP status and safe message for any error. Errors that
// are not AppErrors map to 500 with the generic message.
func Status(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	return http.StatusInternalServerError, SystemErrorMessage
}
