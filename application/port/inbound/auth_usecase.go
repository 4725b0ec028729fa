package inbound

import (
	"context"

	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/domain/valueobject"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID            string                 `json:"user_id"`
	Tokens            *valueobject.TokenPair `json:"tokens"`
	VerificationToken string                 `json:"-"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type AuthUseCase interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*valueobject.TokenPair, error)
	Refresh(ctx context.Context, req RefreshRequest) (*valueobject.TokenPair, error)
	Me(ctx context.Context, userID string) (*MeResponse, error)
	// ForgotPassword mints a password-reset token for the account if it
	// exists. Delivery is an external concern; the returned token is handed
	// to the notification collaborator and never exposed to the client.
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, token string) error
}

// ScoreService exposes password strength scoring for the registration form.
type ScoreService interface {
	Score(password string) outbound.PasswordStrength
}
