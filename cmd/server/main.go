package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/tokonova/tokonova/application/usecase"
	"github.com/tokonova/tokonova/infrastructure/config"
	httpserver "github.com/tokonova/tokonova/infrastructure/http"
	"github.com/tokonova/tokonova/infrastructure/http/handler"
	"github.com/tokonova/tokonova/infrastructure/http/middleware"
	"github.com/tokonova/tokonova/infrastructure/persistence/postgres"
	"github.com/tokonova/tokonova/infrastructure/service/cache"
	"github.com/tokonova/tokonova/infrastructure/service/jwt"
	"github.com/tokonova/tokonova/infrastructure/service/logger"
	"github.com/tokonova/tokonova/infrastructure/service/password"
	"github.com/tokonova/tokonova/infrastructure/service/ratelimit"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "tokonova",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env": cfg.Environment,
	})

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to open database", err, nil)
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		structuredLogger.Error(ctx, "Failed to ping database", err, nil)
		log.Fatalf("Failed to ping database: %v", err)
	}
	structuredLogger.Info(ctx, "Database connection established", nil)

	// The cache connects lazily; an unreachable Redis only costs cache hits.
	cacheService := cache.NewRedisCache(cache.Config{
		RedisURL:       cfg.RedisURL,
		ConnectTimeout: cfg.CacheConnectTimeout,
		DefaultTTL:     cfg.CacheDefaultTTL,
	}, structuredLogger)

	loginLimiter := ratelimit.NewLoginLimiter(ratelimit.Config{
		Enabled:        cfg.RateLimitEnabled,
		RedisURL:       cfg.RedisURL,
		MaxAttempts:    cfg.LoginMaxAttempts,
		Window:         cfg.LoginWindow,
		ConnectTimeout: cfg.CacheConnectTimeout,
	}, structuredLogger)

	tokenService, err := jwt.NewJWTService(jwt.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		ResetTTL:   cfg.ResetTokenTTL,
		VerifyTTL:  cfg.VerifyTokenTTL,
	})
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize JWT service", err, nil)
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)

	authUseCase := usecase.NewAuthUseCase(
		userRepo,
		tokenService,
		passwordService,
		cacheService,
		loginLimiter,
		structuredLogger,
		cfg.AccessTokenTTL,
	)
	catalogUseCase := usecase.NewCatalogUseCase(productRepo, cacheService, structuredLogger)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo, cacheService, structuredLogger, middleware.Options{
		TrustTokenOnStoreFailure: cfg.TrustTokenOnStoreFailure,
		LookupTimeout:            cfg.StoreLookupTimeout,
	})

	server := httpserver.NewServer(cfg, httpserver.Dependencies{
		AuthHandler:    handler.NewAuthHandler(authUseCase),
		CatalogHandler: handler.NewCatalogHandler(catalogUseCase),
		AuthMiddleware: authMiddleware,
		Cache:          cacheService,
		DB:             db,
		Logger:         structuredLogger,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			structuredLogger.Error(ctx, "Server failed", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}
