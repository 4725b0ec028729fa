package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/domain/entity"
	"github.com/tokonova/tokonova/infrastructure/http/response"
	"github.com/tokonova/tokonova/infrastructure/service/jwt"
	"github.com/tokonova/tokonova/infrastructure/service/logger"
)

type fakeUserRepo struct {
	user *entity.User
	err  error
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, outbound.ErrUserNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	return nil
}

func (f *fakeUserRepo) MarkEmailVerified(ctx context.Context, id string) error { return nil }

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

type fakeCache struct {
	setKeys []string
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) bool { return false }

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	f.setKeys = append(f.setKeys, key)
	return true
}

func (f *fakeCache) Delete(ctx context.Context, key string) bool { return true }

func (f *fakeCache) ClearPattern(ctx context.Context, p string) bool { return true }

func (f *fakeCache) InvalidateResource(ctx context.Context, r string) bool { return true }

func (f *fakeCache) Memoize(ctx context.Context, key string, ttl time.Duration, fetch func() (interface{}, error), dest interface{}) error {
	value, err := fetch()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) HealthCheck(ctx context.Context) outbound.CacheHealth {
	return outbound.CacheHealth{Available: false}
}

// panickyTokenService simulates an unexpected internal failure inside the
// guard's boundary.
type panickyTokenService struct{}

func (p *panickyTokenService) MintAccessToken(userID, email, role string) (string, error) {
	return "", nil
}

func (p *panickyTokenService) VerifyAccessToken(token string) (*outbound.AccessClaims, error) {
	panic("boom")
}

func (p *panickyTokenService) MintRefreshToken(userID, email string) (string, error) { return "", nil }

func (p *panickyTokenService) VerifyRefreshToken(token string) (*outbound.RefreshClaims, error) {
	return nil, nil
}

func (p *panickyTokenService) MintPurposeToken(purpose, userID, email string) (string, error) {
	return "", nil
}

func (p *panickyTokenService) VerifyPurposeToken(token, expected string) (*outbound.PurposeClaims, error) {
	return nil, nil
}

func newTokenService(t *testing.T, accessTTL time.Duration) *jwt.JWTService {
	t.Helper()
	service, err := jwt.NewJWTService(jwt.Config{
		Secret:     "test-secret",
		Issuer:     "tokonova",
		AccessTTL:  accessTTL,
		RefreshTTL: time.Hour,
		ResetTTL:   time.Hour,
		VerifyTTL:  time.Hour,
	})
	require.NoError(t, err)
	return service
}

func activeUser(id, role string) *entity.User {
	return &entity.User{ID: id, Email: "a@b.com", Role: role, Active: true}
}

func doRequest(handler http.HandlerFunc, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func envelopeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Message
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "ok", nil)
}

func TestRequireAuth(t *testing.T) {
	tokens := newTokenService(t, time.Hour)

	t.Run("MissingHeader", func(t *testing.T) {
		m := NewAuthMiddleware(tokens, &fakeUserRepo{}, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		rec := doRequest(m.RequireAuth(okHandler), "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "No authorization token provided", envelopeMessage(t, rec))
	})

	t.Run("MalformedToken", func(t *testing.T) {
		m := NewAuthMiddleware(tokens, &fakeUserRepo{}, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		rec := doRequest(m.RequireAuth(okHandler), "garbage")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token", envelopeMessage(t, rec))
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		expired := newTokenService(t, -time.Minute)
		token, err := expired.MintAccessToken("u1", "a@b.com", entity.RoleCustomer)
		require.NoError(t, err)

		m := NewAuthMiddleware(tokens, &fakeUserRepo{}, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		rec := doRequest(m.RequireAuth(okHandler), token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Token expired", envelopeMessage(t, rec))
	})

	t.Run("ValidTokenReachesHandler", func(t *testing.T) {
		token, err := tokens.MintAccessToken("u1", "a@b.com", entity.RoleCustomer)
		require.NoError(t, err)

		cacheSpy := &fakeCache{}
		m := NewAuthMiddleware(tokens, &fakeUserRepo{user: activeUser("u1", entity.RoleCustomer)}, cacheSpy, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})

		var seen *outbound.AccessClaims
		handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			seen = GetUserClaims(r.Context())
			response.Success(w, http.StatusOK, "ok", nil)
		})
		rec := doRequest(handler, token)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "u1", seen.UserID)
		assert.Equal(t, "a@b.com", seen.Email)
		assert.Equal(t, entity.RoleCustomer, seen.Role)
		// Successful re-validation refreshes the cached profile.
		assert.Contains(t, cacheSpy.setKeys, "tokonova:users:profile:u1")
	})

	t.Run("StoreFailureTrusted", func(t *testing.T) {
		token, err := tokens.MintAccessToken("u1", "a@b.com", entity.RoleCustomer)
		require.NoError(t, err)

		repo := &fakeUserRepo{err: errors.New("connection refused")}
		m := NewAuthMiddleware(tokens, repo, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		rec := doRequest(m.RequireAuth(okHandler), token)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("StoreFailureStrict", func(t *testing.T) {
		token, err := tokens.MintAccessToken("u1", "a@b.com", entity.RoleCustomer)
		require.NoError(t, err)

		repo := &fakeUserRepo{err: errors.New("connection refused")}
		m := NewAuthMiddleware(tokens, repo, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: false})
		rec := doRequest(m.RequireAuth(okHandler), token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unable to verify account", envelopeMessage(t, rec))
	})

	t.Run("UserNotFound", func(t *testing.T) {
		token, err := tokens.MintAccessToken("u1", "a@b.com", entity.RoleCustomer)
		require.NoError(t, err)

		repo := &fakeUserRepo{err: outbound.ErrUserNotFound}
		m := NewAuthMiddleware(tokens, repo, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		rec := doRequest(m.RequireAuth(okHandler), token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("DisabledAccount", func(t *testing.T) {
		token, err := tokens.MintAccessToken("u1", "a@b.com", entity.RoleCustomer)
		require.NoError(t, err)

		user := activeUser("u1", entity.RoleCustomer)
		user.Active = false
		m := NewAuthMiddleware(tokens, &fakeUserRepo{user: user}, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		rec := doRequest(m.RequireAuth(okHandler), token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Account is disabled", envelopeMessage(t, rec))
	})

	t.Run("PanicBecomesUnauthorized", func(t *testing.T) {
		m := NewAuthMiddleware(&panickyTokenService{}, &fakeUserRepo{}, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		rec := doRequest(m.RequireAuth(okHandler), "some-token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication failed", envelopeMessage(t, rec))
	})
}

func TestRequireRole(t *testing.T) {
	tokens := newTokenService(t, time.Hour)

	guard := func(role string, wrap func(*AuthMiddleware, http.HandlerFunc) http.HandlerFunc) *httptest.ResponseRecorder {
		token, _ := tokens.MintAccessToken("u1", "a@b.com", role)
		repo := &fakeUserRepo{user: activeUser("u1", role)}
		m := NewAuthMiddleware(tokens, repo, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})
		return doRequest(wrap(m, okHandler), token)
	}

	t.Run("CustomerOnAdminRoute", func(t *testing.T) {
		rec := guard(entity.RoleCustomer, (*AuthMiddleware).RequireAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Access denied. Required role: admin", envelopeMessage(t, rec))
	})

	t.Run("AdminOnAdminRoute", func(t *testing.T) {
		rec := guard(entity.RoleAdmin, (*AuthMiddleware).RequireAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("TechnicianOnStaffRoute", func(t *testing.T) {
		rec := guard(entity.RoleTechnician, (*AuthMiddleware).RequireStaff)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("CustomerOnStaffRoute", func(t *testing.T) {
		rec := guard(entity.RoleCustomer, (*AuthMiddleware).RequireStaff)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Access denied. Required role: admin, technician", envelopeMessage(t, rec))
	})
}

func TestRequireOwnership(t *testing.T) {
	tokens := newTokenService(t, time.Hour)

	serve := func(subjectID, role, resourceOwner string) *httptest.ResponseRecorder {
		token, _ := tokens.MintAccessToken(subjectID, "a@b.com", role)
		repo := &fakeUserRepo{user: activeUser(subjectID, role)}
		m := NewAuthMiddleware(tokens, repo, &fakeCache{}, logger.NewNop(), Options{TrustTokenOnStoreFailure: true})

		router := mux.NewRouter()
		router.HandleFunc("/v1/users/{id}", m.RequireOwnership("id", okHandler)).Methods(http.MethodGet)

		req := httptest.NewRequest(http.MethodGet, "/v1/users/"+resourceOwner, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("OwnerAllowed", func(t *testing.T) {
		rec := serve("u1", entity.RoleCustomer, "u1")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("OtherCustomerForbidden", func(t *testing.T) {
		rec := serve("u1", entity.RoleCustomer, "u2")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("AdminBypass", func(t *testing.T) {
		rec := serve("admin1", entity.RoleAdmin, "u2")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
