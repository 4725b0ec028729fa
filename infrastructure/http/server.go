package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/infrastructure/config"
	"github.com/tokonova/tokonova/infrastructure/http/handler"
	"github.com/tokonova/tokonova/infrastructure/http/middleware"
	"github.com/tokonova/tokonova/infrastructure/service/logger"
)

type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	CatalogHandler *handler.CatalogHandler
	AuthMiddleware *middleware.AuthMiddleware
	Cache          outbound.CacheService
	DB             *sql.DB
	Logger         logger.Logger
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	router := mux.NewRouter()

	// Public auth endpoints
	router.HandleFunc("/v1/auth/register", deps.AuthHandler.Register).Methods(http.MethodPost)
	router.HandleFunc("/v1/auth/login", deps.AuthHandler.Login).Methods(http.MethodPost)
	router.HandleFunc("/v1/auth/refresh", deps.AuthHandler.Refresh).Methods(http.MethodPost)
	router.HandleFunc("/v1/auth/forgot-password", deps.AuthHandler.ForgotPassword).Methods(http.MethodPost)
	router.HandleFunc("/v1/auth/reset-password", deps.AuthHandler.ResetPassword).Methods(http.MethodPost)
	router.HandleFunc("/v1/auth/verify-email", deps.AuthHandler.VerifyEmail).Methods(http.MethodPost)

	// Authenticated account endpoints
	guard := deps.AuthMiddleware
	router.HandleFunc("/v1/auth/me", guard.RequireAuth(deps.AuthHandler.Me)).Methods(http.MethodGet)
	router.HandleFunc("/v1/users/{id}", guard.RequireOwnership("id", deps.AuthHandler.GetUser)).Methods(http.MethodGet)

	// Public catalog reads
	router.HandleFunc("/v1/products", deps.CatalogHandler.ListProducts).Methods(http.MethodGet)
	router.HandleFunc("/v1/products/{id}", deps.CatalogHandler.GetProduct).Methods(http.MethodGet)
	router.HandleFunc("/v1/services", deps.CatalogHandler.ListServices).Methods(http.MethodGet)
	router.HandleFunc("/v1/homepage", deps.CatalogHandler.Homepage).Methods(http.MethodGet)

	// Admin catalog writes
	router.HandleFunc("/v1/products", guard.RequireAdmin(deps.CatalogHandler.CreateProduct)).Methods(http.MethodPost)
	router.HandleFunc("/v1/products/{id}", guard.RequireAdmin(deps.CatalogHandler.UpdateProduct)).Methods(http.MethodPut)
	router.HandleFunc("/v1/products/{id}", guard.RequireAdmin(deps.CatalogHandler.DeleteProduct)).Methods(http.MethodDelete)

	router.HandleFunc("/health", healthHandler(deps.DB, deps.Cache)).Methods(http.MethodGet)

	var root http.Handler = router
	root = middleware.CorrelationIDMiddleware(root)
	if cfg.CORSEnabled && len(cfg.CORSAllowedOrigins) > 0 {
		root = middleware.CORSMiddleware(root, cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
			Handler:      root,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: deps.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting HTTP server", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server", nil)
	return s.httpServer.Shutdown(ctx)
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// healthHandler reports degraded rather than failing when the cache is down;
// the cache is optional by contract. A dead database is a hard failure.
func healthHandler(db *sql.DB, cache outbound.CacheService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := healthStatus{Status: "healthy", Database: "up", Cache: "up"}
		code := http.StatusOK

		if err := db.PingContext(ctx); err != nil {
			status.Status = "unhealthy"
			status.Database = "down"
			code = http.StatusServiceUnavailable
		}
		if health := cache.HealthCheck(ctx); !health.Available {
			status.Cache = "down"
			if status.Status == "healthy" {
				status.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
