package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string

	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	VerifyTokenTTL  time.Duration

	BcryptCost int

	RedisURL            string
	CacheConnectTimeout time.Duration
	CacheDefaultTTL     time.Duration

	TrustTokenOnStoreFailure bool
	StoreLookupTimeout       time.Duration

	RateLimitEnabled bool
	LoginMaxAttempts int
	LoginWindow      time.Duration

	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string

	LogLevel  string
	LogFormat string

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrInvalidTokenTTL    = errors.New("invalid token TTL format")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   getEnvOrDefault("JWT_ISSUER", "tokonova"),

		BcryptCost: getEnvOrDefaultInt("BCRYPT_COST", 12),

		RedisURL:            getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		CacheConnectTimeout: getEnvOrDefaultSeconds("CACHE_CONNECT_TIMEOUT", 3*time.Second),
		CacheDefaultTTL:     getEnvOrDefaultSeconds("CACHE_DEFAULT_TTL", time.Hour),

		TrustTokenOnStoreFailure: getEnvOrDefaultBool("TRUST_TOKEN_ON_STORE_FAILURE", true),
		StoreLookupTimeout:       getEnvOrDefaultSeconds("STORE_LOOKUP_TIMEOUT", 2*time.Second),

		RateLimitEnabled: getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		LoginMaxAttempts: getEnvOrDefaultInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getEnvOrDefaultSeconds("LOGIN_WINDOW", 15*time.Minute),

		ServerPort:   getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:   getEnvOrDefault("SERVER_HOST", "localhost"),
		ReadTimeout:  getEnvOrDefaultSeconds("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvOrDefaultSeconds("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvOrDefaultSeconds("SERVER_IDLE_TIMEOUT", 60*time.Second),
		Environment:  getEnvOrDefault("ENV", "development"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:   parseAllowedOrigins(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	// Token TTLs are seconds in the environment. The access TTL is short by
	// default; there is no revocation list, expiry is the only backstop.
	accessTokenTTL, err := parseTokenTTL(getEnvOrDefault("JWT_ACCESS_TOKEN_TTL", "900"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.AccessTokenTTL = accessTokenTTL

	refreshTokenTTL, err := parseTokenTTL(getEnvOrDefault("JWT_REFRESH_TOKEN_TTL", "2592000"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.RefreshTokenTTL = refreshTokenTTL

	resetTokenTTL, err := parseTokenTTL(getEnvOrDefault("JWT_RESET_TOKEN_TTL", "3600"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.ResetTokenTTL = resetTokenTTL

	verifyTokenTTL, err := parseTokenTTL(getEnvOrDefault("JWT_VERIFY_TOKEN_TTL", "86400"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.VerifyTokenTTL = verifyTokenTTL

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

func parseTokenTTL(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseAllowedOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
