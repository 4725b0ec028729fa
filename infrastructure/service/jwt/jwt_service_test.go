package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tokonova/tokonova/application/port/outbound"
)

func testConfig() Config {
	return Config{
		Secret:     "test-secret",
		Issuer:     "tokonova",
		AccessTTL:  time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
		ResetTTL:   time.Hour,
		VerifyTTL:  24 * time.Hour,
	}
}

func TestJWTService(t *testing.T) {
	service, err := NewJWTService(testConfig())
	if err != nil {
		t.Fatalf("Failed to create JWT service: %v", err)
	}

	t.Run("MissingSecret", func(t *testing.T) {
		_, err := NewJWTService(Config{Issuer: "tokonova"})
		if err == nil {
			t.Error("Should fail without a secret")
		}
	})

	t.Run("AccessTokenRoundTrip", func(t *testing.T) {
		token, err := service.MintAccessToken("user123", "a@b.com", "customer")
		if err != nil {
			t.Fatalf("Failed to mint access token: %v", err)
		}
		if len(strings.Split(token, ".")) != 3 {
			t.Error("Token should have 3 dot-separated segments")
		}

		claims, err := service.VerifyAccessToken(token)
		if err != nil {
			t.Fatalf("Failed to verify access token: %v", err)
		}
		if claims.UserID != "user123" {
			t.Errorf("Expected user ID 'user123', got %q", claims.UserID)
		}
		if claims.Email != "a@b.com" {
			t.Errorf("Expected email 'a@b.com', got %q", claims.Email)
		}
		if claims.Role != "customer" {
			t.Errorf("Expected role 'customer', got %q", claims.Role)
		}
		if !claims.ExpiresAt.After(claims.IssuedAt) {
			t.Error("Expiry should be after issue time")
		}
	})

	t.Run("RefreshTokenRoundTrip", func(t *testing.T) {
		token, err := service.MintRefreshToken("user123", "a@b.com")
		if err != nil {
			t.Fatalf("Failed to mint refresh token: %v", err)
		}

		claims, err := service.VerifyRefreshToken(token)
		if err != nil {
			t.Fatalf("Failed to verify refresh token: %v", err)
		}
		if claims.UserID != "user123" || claims.Email != "a@b.com" {
			t.Errorf("Unexpected refresh claims: %+v", claims)
		}
	})

	t.Run("MalformedToken", func(t *testing.T) {
		_, err := service.VerifyAccessToken("not-a-token")
		if !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Expected ErrTokenMalformed, got %v", err)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other, _ := NewJWTService(Config{Secret: "other-secret", Issuer: "tokonova", AccessTTL: time.Hour})
		token, err := other.MintAccessToken("user123", "a@b.com", "customer")
		if err != nil {
			t.Fatalf("Failed to mint token: %v", err)
		}

		_, err = service.VerifyAccessToken(token)
		if !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Expected ErrTokenMalformed for wrong signature, got %v", err)
		}
	})

	t.Run("AudienceSeparation", func(t *testing.T) {
		refresh, err := service.MintRefreshToken("user123", "a@b.com")
		if err != nil {
			t.Fatalf("Failed to mint refresh token: %v", err)
		}
		access, err := service.MintAccessToken("user123", "a@b.com", "customer")
		if err != nil {
			t.Fatalf("Failed to mint access token: %v", err)
		}

		if _, err := service.VerifyAccessToken(refresh); !errors.Is(err, ErrWrongAudience) {
			t.Errorf("Refresh token should fail access verification with ErrWrongAudience, got %v", err)
		}
		if _, err := service.VerifyRefreshToken(access); !errors.Is(err, ErrWrongAudience) {
			t.Errorf("Access token should fail refresh verification with ErrWrongAudience, got %v", err)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		cfg := testConfig()
		cfg.AccessTTL = time.Second
		shortService, err := NewJWTService(cfg)
		if err != nil {
			t.Fatalf("Failed to create JWT service: %v", err)
		}

		token, err := shortService.MintAccessToken("user123", "a@b.com", "customer")
		if err != nil {
			t.Fatalf("Failed to mint access token: %v", err)
		}

		time.Sleep(2 * time.Second)

		_, err = shortService.VerifyAccessToken(token)
		if !errors.Is(err, ErrTokenExpired) {
			t.Errorf("Expected ErrTokenExpired, got %v", err)
		}
	})
}

func TestPurposeTokens(t *testing.T) {
	service, err := NewJWTService(testConfig())
	if err != nil {
		t.Fatalf("Failed to create JWT service: %v", err)
	}

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := service.MintPurposeToken(outbound.PurposePasswordReset, "user123", "a@b.com")
		if err != nil {
			t.Fatalf("Failed to mint purpose token: %v", err)
		}

		claims, err := service.VerifyPurposeToken(token, outbound.PurposePasswordReset)
		if err != nil {
			t.Fatalf("Failed to verify purpose token: %v", err)
		}
		if claims.UserID != "user123" || claims.Purpose != outbound.PurposePasswordReset {
			t.Errorf("Unexpected purpose claims: %+v", claims)
		}
	})

	t.Run("WrongPurpose", func(t *testing.T) {
		token, err := service.MintPurposeToken(outbound.PurposePasswordReset, "user123", "a@b.com")
		if err != nil {
			t.Fatalf("Failed to mint purpose token: %v", err)
		}

		_, err = service.VerifyPurposeToken(token, outbound.PurposeEmailVerification)
		if !errors.Is(err, ErrWrongPurpose) {
			t.Errorf("Expected ErrWrongPurpose, got %v", err)
		}
	})

	t.Run("UnknownPurpose", func(t *testing.T) {
		_, err := service.MintPurposeToken("session", "user123", "a@b.com")
		if err == nil {
			t.Error("Should reject an unknown purpose")
		}
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		access, err := service.MintAccessToken("user123", "a@b.com", "customer")
		if err != nil {
			t.Fatalf("Failed to mint access token: %v", err)
		}

		_, err = service.VerifyPurposeToken(access, outbound.PurposePasswordReset)
		if !errors.Is(err, ErrWrongAudience) {
			t.Errorf("Expected ErrWrongAudience, got %v", err)
		}
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"Empty", "", ""},
		{"NoScheme", "InvalidHeader", ""},
		{"SchemeOnly", "Bearer", ""},
		{"WrongScheme", "Basic xyz", ""},
		{"Valid", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"TooManyParts", "Bearer abc def", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBearerToken(tt.header); got != tt.want {
				t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
