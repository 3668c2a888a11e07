package common

import (
	"fmt"
	"net/http"
)

// AppError is an application error with an HTTP status mapping
type AppError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message, Err: err}
}

// NewUnprocessableError creates a 422 error
func NewUnprocessableError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusUnprocessableEntity, Message: message, Err: err}
}

// NewConflictError creates a 409 error
func NewConflictError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Message: message, Err: err}
}

// NewInternalServerError creates a 500 error
func NewInternalServerError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}
