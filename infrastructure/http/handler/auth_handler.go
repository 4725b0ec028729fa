package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tokonova/tokonova/application/port/inbound"
	"github.com/tokonova/tokonova/application/usecase"
	"github.com/tokonova/tokonova/infrastructure/http/middleware"
	"github.com/tokonova/tokonova/infrastructure/http/response"
	"github.com/tokonova/tokonova/infrastructure/http/validator"
	"github.com/tokonova/tokonova/pkg/apperror"
)

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
}

func NewAuthHandler(authUseCase inbound.AuthUseCase) *AuthHandler {
	return &AuthHandler{authUseCase: authUseCase}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req inbound.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateEmail(req.Email) {
		response.UnprocessableEntity(w, "Invalid email format")
		return
	}
	if !validator.ValidateRequired(req.Password) {
		response.UnprocessableEntity(w, "Password is required")
		return
	}

	resp, err := h.authUseCase.Register(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Account created", resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req inbound.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateEmail(req.Email) {
		response.UnprocessableEntity(w, "Invalid email format")
		return
	}
	if !validator.ValidateRequired(req.Password) {
		response.UnprocessableEntity(w, "Password is required")
		return
	}

	ctx := context.WithValue(r.Context(), usecase.ClientIPKey, getClientIP(r))
	tokens, err := h.authUseCase.Login(ctx, req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Login successful", tokens)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req inbound.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if !validator.ValidateRequired(req.RefreshToken) {
		response.Unauthorized(w, "Refresh token required")
		return
	}

	tokens, err := h.authUseCase.Refresh(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Token refreshed", tokens)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserClaims(r.Context())
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	resp, err := h.authUseCase.Me(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", resp)
}

// GetUser serves /v1/users/{id}. The ownership guard has already checked
// that the caller is the subject or an admin.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "User id is required")
		return
	}

	resp, err := h.authUseCase.Me(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", resp)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if !validator.ValidateEmail(req.Email) {
		response.UnprocessableEntity(w, "Invalid email format")
		return
	}

	// The token goes to the mail pipeline, never into the response, and the
	// answer is identical whether or not the account exists.
	if _, err := h.authUseCase.ForgotPassword(r.Context(), req.Email); err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "If the account exists, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req inbound.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if !validator.ValidateRequired(req.Token) {
		response.Unauthorized(w, "Reset token required")
		return
	}
	if !validator.ValidateRequired(req.NewPassword) {
		response.UnprocessableEntity(w, "New password is required")
		return
	}

	if err := h.authUseCase.ResetPassword(r.Context(), req); err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Password updated", nil)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if !validator.ValidateRequired(req.Token) {
		response.Unauthorized(w, "Verification token required")
		return
	}

	if err := h.authUseCase.VerifyEmail(r.Context(), req.Token); err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Email verified", nil)
}

func writeAppError(w http.ResponseWriter, err error) {
	appErr := apperror.MapError(err)
	response.Error(w, appErr.Status, appErr.Message)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Multiple proxies append; the first entry is the caller.
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
