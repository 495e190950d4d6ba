// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrProspectNotFound is returned when a prospect does not exist or belongs to another user.
type ErrProspectNotFound struct {
	ProspectID int
}

func (e *ErrProspectNotFound) Error() string {
	return fmt.Sprintf("prospect with ID %d not found", e.ProspectID)
}

func NewProspectNotFound(id int) error {
	return &ErrProspectNotFound{ProspectID: id}
}

// ErrEmailLogNotFound is returned for unknown (or foreign) email logs.
type ErrEmailLogNotFound struct {
	EmailLogID int
}

func (e *ErrEmailLogNotFound) Error() string {
	return fmt.Sprintf("email log with ID %d not found", e.EmailLogID)
}

func NewEmailLogNotFound(id int) error {
	return &ErrEmailLogNotFound{EmailLogID: id}
}

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError carries the HTTP status and the client-facing message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Status  int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message, Status: http.StatusNotFound}
}

func NewInvalidInput(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message, Status: http.StatusBadRequest}
}

// NewValidation is for malformed or incomplete request bodies (422).
func NewValidation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Status: http.StatusUnprocessableEntity}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message, Status: http.StatusConflict}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func NewInternal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Status: http.StatusInternalServerError}
}

// Wrap attaches a cause to a client-facing error.
func Wrap(err error, code ErrorCode, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Err: err, Status: status}
}

// HTTPStatus maps any error to a status code and the message safe to return.
func HTTPStatus(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}

	var pErr *ErrProspectNotFound
	if errors.As(err, &pErr) {
		return http.StatusNotFound, "Prospect not found"
	}

	var eErr *ErrEmailLogNotFound
	if errors.As(err, &eErr) {
		return http.StatusNotFound, "Email draft not found"
	}

	return http.StatusInternalServerError, "Internal server error"
}
