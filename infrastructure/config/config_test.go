package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/tokonova_test")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if cfg.AccessTokenTTL != 15*time.Minute {
			t.Errorf("Expected access TTL 15m, got %v", cfg.AccessTokenTTL)
		}
		if cfg.RefreshTokenTTL != 30*24*time.Hour {
			t.Errorf("Expected refresh TTL 30d, got %v", cfg.RefreshTokenTTL)
		}
		if cfg.ResetTokenTTL != time.Hour {
			t.Errorf("Expected reset TTL 1h, got %v", cfg.ResetTokenTTL)
		}
		if cfg.VerifyTokenTTL != 24*time.Hour {
			t.Errorf("Expected verify TTL 24h, got %v", cfg.VerifyTokenTTL)
		}
		if cfg.BcryptCost != 12 {
			t.Errorf("Expected bcrypt cost 12, got %d", cfg.BcryptCost)
		}
		if !cfg.TrustTokenOnStoreFailure {
			t.Error("Expected permissive store-failure behavior by default")
		}
		if cfg.JWTIssuer != "tokonova" {
			t.Errorf("Expected issuer tokonova, got %q", cfg.JWTIssuer)
		}
	})

	t.Run("MissingDatabaseURL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "test-secret")

		if _, err := Load(); err != ErrMissingDatabaseURL {
			t.Errorf("Expected ErrMissingDatabaseURL, got %v", err)
		}
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/tokonova_test")
		t.Setenv("JWT_SECRET", "")

		if _, err := Load(); err != ErrMissingJWTSecret {
			t.Errorf("Expected ErrMissingJWTSecret, got %v", err)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("JWT_ACCESS_TOKEN_TTL", "600")
		t.Setenv("BCRYPT_COST", "10")
		t.Setenv("TRUST_TOKEN_ON_STORE_FAILURE", "false")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.tokonova.id, https://tokonova.id")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if cfg.AccessTokenTTL != 10*time.Minute {
			t.Errorf("Expected access TTL 10m, got %v", cfg.AccessTokenTTL)
		}
		if cfg.BcryptCost != 10 {
			t.Errorf("Expected bcrypt cost 10, got %d", cfg.BcryptCost)
		}
		if cfg.TrustTokenOnStoreFailure {
			t.Error("Expected strict store-failure behavior")
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Errorf("Expected 2 origins, got %v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("InvalidTTL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("JWT_ACCESS_TOKEN_TTL", "soon")

		if _, err := Load(); err != ErrInvalidTokenTTL {
			t.Errorf("Expected ErrInvalidTokenTTL, got %v", err)
		}
	})
}
