package outbound

import "time"

// Purposes for single-purpose tokens. Verification rejects a structurally
// valid token whose purpose claim does not match the expected one.
const (
	PurposePasswordReset     = "password_reset"
	PurposeEmailVerification = "email_verification"
)

// AccessClaims is the payload handed to guarded handlers. Fields mirror the
// claim set embedded at mint time and are never re-derived per request.
type AccessClaims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RefreshClaims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PurposeClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type TokenService interface {
	MintAccessToken(userID, email, role string) (string, error)
	VerifyAccessToken(token string) (*AccessClaims, error)
	MintRefreshToken(userID, email string) (string, error)
	VerifyRefreshToken(token string) (*RefreshClaims, error)
	MintPurposeToken(purpose, userID, email string) (string, error)
	VerifyPurposeToken(token, expectedPurpose string) (*PurposeClaims, error)
}
