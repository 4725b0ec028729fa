package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tokonova/tokonova/domain/valueobject"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"BadRequest", NewBadRequest("m"), "BAD_REQUEST", http.StatusBadRequest},
		{"Unauthorized", NewUnauthorized("m"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"Forbidden", NewForbidden("m"), "FORBIDDEN", http.StatusForbidden},
		{"NotFound", NewNotFound("m"), "NOT_FOUND", http.StatusNotFound},
		{"InternalServer", NewInternalServer("m"), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"Conflict", NewConflict("m"), "CONFLICT", http.StatusConflict},
		{"Unprocessable", NewUnprocessable("m"), "UNPROCESSABLE", http.StatusUnprocessableEntity},
		{"TooManyRequests", NewTooManyRequests("m"), "TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %q, got %q", tt.code, tt.err.Code)
			}
			if tt.err.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, tt.err.Status)
			}
			if tt.err.Error() != "m" {
				t.Errorf("Error() should return the message, got %q", tt.err.Error())
			}
		})
	}
}

func TestMapError(t *testing.T) {
	t.Run("PassesThroughAppError", func(t *testing.T) {
		original := NewNotFound("Product not found")
		if mapped := MapError(fmt.Errorf("loading product: %w", original)); mapped != original {
			t.Errorf("Wrapped AppError should unwrap to the original, got %v", mapped)
		}
	})

	t.Run("CredentialErrorsBecome400", func(t *testing.T) {
		if mapped := MapError(valueobject.ErrInvalidEmail); mapped.Status != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", mapped.Status)
		}
		if mapped := MapError(valueobject.ErrPasswordTooShort); mapped.Status != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", mapped.Status)
		}
	})

	t.Run("UnknownErrorsBecomeGeneric500", func(t *testing.T) {
		mapped := MapError(errors.New("pq: connection refused"))
		if mapped != ErrInternalServer {
			t.Errorf("Unknown errors must map to the generic 500, got %v", mapped)
		}
	})
}
