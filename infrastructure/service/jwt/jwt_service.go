package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tokonova/tokonova/application/port/outbound"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrWrongAudience  = errors.New("token audience mismatch")
	ErrWrongPurpose   = errors.New("token purpose mismatch")
)

// Audience tags distinguish token categories. All categories share one
// signing secret; the audience check is what prevents a refresh token from
// being replayed as an access token.
const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
	audiencePurpose = "purpose"
)

type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	VerifyTTL  time.Duration
}

type JWTService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	verifyTTL  time.Duration
}

// Claims are typed per token category so a mis-scoped token cannot be
// unmarshalled into the wrong verifier's shape.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type purposeClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func NewJWTService(cfg Config) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		resetTTL:   cfg.ResetTTL,
		verifyTTL:  cfg.VerifyTTL,
	}, nil
}

func (s *JWTService) MintAccessToken(userID, email, role string) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{audienceAccess},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	return s.sign(claims)
}

func (s *JWTService) VerifyAccessToken(tokenString string) (*outbound.AccessClaims, error) {
	var claims accessClaims
	if err := s.parse(tokenString, &claims, audienceAccess); err != nil {
		return nil, err
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}

	return &outbound.AccessClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *JWTService) MintRefreshToken(userID, email string) (string, error) {
	now := time.Now()
	claims := refreshClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{audienceRefresh},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}

	return s.sign(claims)
}

func (s *JWTService) VerifyRefreshToken(tokenString string) (*outbound.RefreshClaims, error) {
	var claims refreshClaims
	if err := s.parse(tokenString, &claims, audienceRefresh); err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}

	return &outbound.RefreshClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *JWTService) MintPurposeToken(purpose, userID, email string) (string, error) {
	var ttl time.Duration
	switch purpose {
	case outbound.PurposePasswordReset:
		ttl = s.resetTTL
	case outbound.PurposeEmailVerification:
		ttl = s.verifyTTL
	default:
		return "", fmt.Errorf("unknown token purpose: %s", purpose)
	}

	now := time.Now()
	claims := purposeClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{audiencePurpose},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return s.sign(claims)
}

// VerifyPurposeToken rejects a structurally valid, unexpired token whose
// purpose claim does not equal the expected one.
func (s *JWTService) VerifyPurposeToken(tokenString, expectedPurpose string) (*outbound.PurposeClaims, error) {
	var claims purposeClaims
	if err := s.parse(tokenString, &claims, audiencePurpose); err != nil {
		return nil, err
	}

	if claims.Purpose != expectedPurpose {
		return nil, ErrWrongPurpose
	}

	return &outbound.PurposeClaims{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Purpose: claims.Purpose,
	}, nil
}

func (s *JWTService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(audience))

	if err != nil {
		return s.mapValidationError(err)
	}

	if !token.Valid {
		return ErrTokenMalformed
	}

	return nil
}

// mapValidationError collapses library errors into the service's taxonomy.
// Expired and malformed are distinguished so callers can offer a silent
// refresh versus forcing a re-login.
func (s *JWTService) mapValidationError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrWrongAudience
	default:
		return ErrTokenMalformed
	}
}

// ExtractBearerToken parses an Authorization header value and returns the
// token segment of "Bearer <token>". A missing header, a wrong scheme or a
// missing token all return the empty string; this is a pure parsing helper
// and never fails.
func ExtractBearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
