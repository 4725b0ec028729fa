package apperror

import (
	"errors"
	"net/http"

	"github.com/tokonova/tokonova/domain/valueobject"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: "BAD_REQUEST", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden      = &AppError{Code: "FORBIDDEN", Message: "Forbidden", Status: http.StatusForbidden}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Not found", Status: http.StatusNotFound}
	ErrConflict       = &AppError{Code: "CONFLICT", Message: "Conflict", Status: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "Internal server error", Status: http.StatusInternalServerError}
)

func NewBadRequest(message string) *AppError {
	return &AppError{Code: "BAD_REQUEST", Message: message, Status: http.StatusBadRequest}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message, Status: http.StatusUnauthorized}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound}
}

func NewInternalServer(message string) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict}
}

func NewUnprocessable(message string) *AppError {
	return &AppError{Code: "UNPROCESSABLE", Message: message, Status: http.StatusUnprocessableEntity}
}

func NewTooManyRequests(message string) *AppError {
	return &AppError{Code: "TOO_MANY_REQUESTS", Message: message, Status: http.StatusTooManyRequests}
}

// MapError translates domain and service errors into an AppError. Anything
// unrecognized becomes a generic 500 so internal error shapes never reach a
// client.
func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, valueobject.ErrInvalidEmail),
		errors.Is(err, valueobject.ErrPasswordTooShort):
		return NewBadRequest(err.Error())
	default:
		return ErrInternalServer
	}
}
