package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/domain/entity"
	"github.com/tokonova/tokonova/infrastructure/http/response"
	"github.com/tokonova/tokonova/infrastructure/service/cache"
	"github.com/tokonova/tokonova/infrastructure/service/jwt"
	"github.com/tokonova/tokonova/infrastructure/service/logger"
)

type contextKey string

const authUserKey contextKey = "auth_user"

// Options tune the guard's best-effort identity re-validation.
type Options struct {
	// TrustTokenOnStoreFailure keeps protected operations available when the
	// user store is unreachable: the cryptographic proof in the token is
	// treated as sufficient. The trade-off is that a disabled user keeps
	// acting until their token expires.
	TrustTokenOnStoreFailure bool
	// LookupTimeout bounds the user-store re-validation call.
	LookupTimeout time.Duration
}

type AuthMiddleware struct {
	tokenService outbound.TokenService
	users        outbound.UserRepository
	cache        outbound.CacheService
	logger       logger.Logger
	opts         Options
}

func NewAuthMiddleware(
	tokenService outbound.TokenService,
	users outbound.UserRepository,
	cacheService outbound.CacheService,
	log logger.Logger,
	opts Options,
) *AuthMiddleware {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 2 * time.Second
	}
	return &AuthMiddleware{
		tokenService: tokenService,
		users:        users,
		cache:        cacheService,
		logger:       log,
		opts:         opts,
	}
}

// RequireAuth wraps a protected handler. Failure paths are 401 only; the
// guard never lets an internal error escape as a 500.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireRole layers an allow-list check over RequireAuth.
func (m *AuthMiddleware) RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			response.Unauthorized(w, "User not authenticated")
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}

		response.Forbidden(w, "Access denied. Required role: "+strings.Join(roles, ", "))
	})
}

// Named guards are the generic role guard pre-bound to an allow-list.

func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(next, entity.RoleAdmin)
}

func (m *AuthMiddleware) RequireCustomer(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(next, entity.RoleCustomer)
}

func (m *AuthMiddleware) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(next, entity.RoleAdmin, entity.RoleTechnician)
}

// RequireOwnership permits access to a resource only to its owner or an
// admin. The owner id is taken from the named route variable.
func (m *AuthMiddleware) RequireOwnership(param string, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			response.Unauthorized(w, "User not authenticated")
			return
		}

		if claims.Role == entity.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}

		ownerID := mux.Vars(r)[param]
		if ownerID == "" || claims.UserID != ownerID {
			response.Forbidden(w, "Access denied")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate runs steps 1-4 of the guard: bearer extraction, token
// verification and best-effort identity re-validation. A panic anywhere in
// here becomes a generic 401 rather than a 500.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (claims *outbound.AccessClaims, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error(r.Context(), "Panic in auth guard", nil, map[string]interface{}{
				"panic": rec,
				"path":  r.URL.Path,
			})
			response.Unauthorized(w, "Authentication failed")
			claims, ok = nil, false
		}
	}()

	token := jwt.ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		response.Unauthorized(w, "No authorization token provided")
		return nil, false
	}

	claims, err := m.tokenService.VerifyAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			response.Unauthorized(w, "Token expired")
		} else {
			response.Unauthorized(w, "Invalid token")
		}
		return nil, false
	}

	if !m.revalidate(w, r, claims) {
		return nil, false
	}

	return claims, true
}

// revalidate looks the subject up in the user store and confirms the active
// flag. Store unavailability is tolerated when configured: availability of
// protected operations must not depend on a secondary store being reachable
// when the token already proves the request's trust level.
func (m *AuthMiddleware) revalidate(w http.ResponseWriter, r *http.Request, claims *outbound.AccessClaims) bool {
	lookupCtx, cancel := context.WithTimeout(r.Context(), m.opts.LookupTimeout)
	defer cancel()

	user, err := m.users.FindByID(lookupCtx, claims.UserID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			response.Unauthorized(w, "Account no longer exists")
			return false
		}

		if m.opts.TrustTokenOnStoreFailure {
			m.logger.Warn(r.Context(), "User store unavailable, trusting token claims", map[string]interface{}{
				"user_id": claims.UserID,
				"error":   err.Error(),
			})
			return true
		}

		response.Unauthorized(w, "Unable to verify account")
		return false
	}

	if !user.Active {
		response.Unauthorized(w, "Account is disabled")
		return false
	}

	// Convenience for downstream handlers, not a correctness requirement.
	m.cache.Set(r.Context(), cache.UserKey(user.ID), user, cache.TTLUserProfile)

	return true
}

// GetUserClaims retrieves the authenticated claims from a request context.
func GetUserClaims(ctx context.Context) *outbound.AccessClaims {
	if claims, ok := ctx.Value(authUserKey).(*outbound.AccessClaims); ok {
		return claims
	}
	return nil
}
