package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tokonova/tokonova/application/port/inbound"
	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/domain/entity"
	"github.com/tokonova/tokonova/domain/valueobject"
	"github.com/tokonova/tokonova/infrastructure/service/cache"
	"github.com/tokonova/tokonova/infrastructure/service/logger"
	"github.com/tokonova/tokonova/infrastructure/service/ratelimit"
	"github.com/tokonova/tokonova/pkg/apperror"
)

type contextKey string

// ClientIPKey carries the caller's remote address from the HTTP layer into
// the login rate limiter.
const ClientIPKey contextKey = "client_ip"

func getClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

type AuthUseCase struct {
	userRepository  outbound.UserRepository
	tokenService    outbound.TokenService
	passwordService outbound.PasswordService
	cacheService    outbound.CacheService
	loginLimiter    ratelimit.LoginLimiter
	logger          logger.Logger
	accessTokenTTL  time.Duration
}

func NewAuthUseCase(
	userRepo outbound.UserRepository,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
	cacheService outbound.CacheService,
	loginLimiter ratelimit.LoginLimiter,
	log logger.Logger,
	accessTokenTTL time.Duration,
) inbound.AuthUseCase {
	return &AuthUseCase{
		userRepository:  userRepo,
		tokenService:    tokenService,
		passwordService: passwordService,
		cacheService:    cacheService,
		loginLimiter:    loginLimiter,
		logger:          log,
		accessTokenTTL:  accessTokenTTL,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (*inbound.RegisterResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperror.NewBadRequest("Name is required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	creds, err := valueobject.NewCredentials(email, req.Password)
	if err != nil {
		return nil, apperror.MapError(err)
	}

	if strength := uc.passwordService.Score(req.Password); !strength.Valid {
		return nil, apperror.NewUnprocessable("Password too weak: " + strings.Join(strength.Violations, "; "))
	}

	exists, err := uc.userRepository.ExistsByEmail(ctx, creds.Email())
	if err != nil {
		uc.logger.Error(ctx, "Failed to check email availability", err, map[string]interface{}{
			"email": creds.Email(),
		})
		return nil, apperror.NewInternalServer("Registration failed")
	}
	if exists {
		return nil, apperror.NewConflict("Email is already registered")
	}

	hashed, err := uc.passwordService.Hash(req.Password)
	if err != nil {
		uc.logger.Error(ctx, "Failed to hash password", err, nil)
		return nil, apperror.NewInternalServer("Registration failed")
	}

	user := entity.NewUser(uuid.NewString(), strings.TrimSpace(req.Name), creds.Email(), hashed, entity.RoleCustomer)
	if err := uc.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, outbound.ErrUserAlreadyExists) {
			return nil, apperror.NewConflict("Email is already registered")
		}
		uc.logger.Error(ctx, "Failed to create user", err, map[string]interface{}{
			"email": creds.Email(),
		})
		return nil, apperror.NewInternalServer("Registration failed")
	}

	tokens, err := uc.mintTokenPair(user)
	if err != nil {
		uc.logger.Error(ctx, "Failed to mint token pair", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, apperror.NewInternalServer("Registration failed")
	}

	verification, err := uc.tokenService.MintPurposeToken(outbound.PurposeEmailVerification, user.ID, user.Email)
	if err != nil {
		// Registration stands; the user can request a fresh verification mail.
		uc.logger.Error(ctx, "Failed to mint verification token", err, map[string]interface{}{
			"user_id": user.ID,
		})
	}

	logger.LogAuthEvent(ctx, uc.logger, "register", user.ID, true, map[string]interface{}{
		"email": user.Email,
	})

	return &inbound.RegisterResponse{
		UserID:            user.ID,
		Tokens:            tokens,
		VerificationToken: verification,
	}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*valueobject.TokenPair, error) {
	ip := getClientIP(ctx)
	if !uc.loginLimiter.Allow(ctx, ip) {
		logger.LogAuthEvent(ctx, uc.logger, "login_rate_limited", "", false, map[string]interface{}{
			"ip": ip,
		})
		return nil, apperror.NewTooManyRequests("Too many login attempts, try again later")
	}

	user, err := uc.userRepository.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			uc.loginLimiter.RecordFailure(ctx, ip)
			return nil, apperror.NewUnauthorized("Invalid email or password")
		}
		uc.logger.Error(ctx, "Failed to look up user for login", err, map[string]interface{}{
			"ip": ip,
		})
		return nil, apperror.NewInternalServer("Login failed")
	}

	if !uc.passwordService.Verify(req.Password, user.Password) {
		uc.loginLimiter.RecordFailure(ctx, ip)
		logger.LogAuthEvent(ctx, uc.logger, "login_failed", user.ID, false, map[string]interface{}{
			"ip": ip,
		})
		return nil, apperror.NewUnauthorized("Invalid email or password")
	}

	if !user.Active {
		logger.LogAuthEvent(ctx, uc.logger, "login_disabled_account", user.ID, false, nil)
		return nil, apperror.NewUnauthorized("Account is disabled")
	}

	uc.loginLimiter.Reset(ctx, ip)

	tokens, err := uc.mintTokenPair(user)
	if err != nil {
		uc.logger.Error(ctx, "Failed to mint token pair", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, apperror.NewInternalServer("Login failed")
	}

	logger.LogAuthEvent(ctx, uc.logger, "login", user.ID, true, map[string]interface{}{
		"ip": ip,
	})
	return tokens, nil
}

func (uc *AuthUseCase) Refresh(ctx context.Context, req inbound.RefreshRequest) (*valueobject.TokenPair, error) {
	claims, err := uc.tokenService.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperror.NewUnauthorized("Invalid or expired refresh token")
	}

	// Role is deliberately absent from refresh tokens, so a refresh always
	// reads the current account state.
	user, err := uc.userRepository.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, apperror.NewUnauthorized("Account no longer exists")
		}
		uc.logger.Error(ctx, "Failed to load user for refresh", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, apperror.NewInternalServer("Refresh failed")
	}
	if !user.Active {
		return nil, apperror.NewUnauthorized("Account is disabled")
	}

	tokens, err := uc.mintTokenPair(user)
	if err != nil {
		uc.logger.Error(ctx, "Failed to mint token pair", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, apperror.NewInternalServer("Refresh failed")
	}

	logger.LogAuthEvent(ctx, uc.logger, "token_refresh", user.ID, true, nil)
	return tokens, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*inbound.MeResponse, error) {
	var user entity.User
	if !uc.cacheService.Get(ctx, cache.UserKey(userID), &user) {
		found, err := uc.userRepository.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, outbound.ErrUserNotFound) {
				return nil, apperror.NewNotFound("User not found")
			}
			uc.logger.Error(ctx, "Failed to load user profile", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, apperror.NewInternalServer("Failed to load profile")
		}
		user = *found
		uc.cacheService.Set(ctx, cache.UserKey(userID), found, cache.TTLUserProfile)
	}

	return &inbound.MeResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
	}, nil
}

func (uc *AuthUseCase) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := uc.userRepository.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			// Same outward behavior whether the account exists or not.
			logger.LogAuthEvent(ctx, uc.logger, "password_reset_unknown_email", "", false, nil)
			return "", nil
		}
		uc.logger.Error(ctx, "Failed to look up user for password reset", err, nil)
		return "", apperror.NewInternalServer("Password reset failed")
	}

	token, err := uc.tokenService.MintPurposeToken(outbound.PurposePasswordReset, user.ID, user.Email)
	if err != nil {
		uc.logger.Error(ctx, "Failed to mint reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return "", apperror.NewInternalServer("Password reset failed")
	}

	logger.LogAuthEvent(ctx, uc.logger, "password_reset_requested", user.ID, true, nil)
	return token, nil
}

func (uc *AuthUseCase) ResetPassword(ctx context.Context, req inbound.ResetPasswordRequest) error {
	claims, err := uc.tokenService.VerifyPurposeToken(req.Token, outbound.PurposePasswordReset)
	if err != nil {
		return apperror.NewUnauthorized("Invalid or expired reset token")
	}

	if strength := uc.passwordService.Score(req.NewPassword); !strength.Valid {
		return apperror.NewUnprocessable("Password too weak: " + strings.Join(strength.Violations, "; "))
	}

	hashed, err := uc.passwordService.Hash(req.NewPassword)
	if err != nil {
		uc.logger.Error(ctx, "Failed to hash password", err, nil)
		return apperror.NewInternalServer("Password reset failed")
	}

	if err := uc.userRepository.UpdatePassword(ctx, claims.UserID, hashed); err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperror.NewUnauthorized("Account no longer exists")
		}
		uc.logger.Error(ctx, "Failed to update password", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return apperror.NewInternalServer("Password reset failed")
	}

	uc.cacheService.Delete(ctx, cache.UserKey(claims.UserID))
	logger.LogAuthEvent(ctx, uc.logger, "password_reset", claims.UserID, true, nil)
	return nil
}

func (uc *AuthUseCase) VerifyEmail(ctx context.Context, token string) error {
	claims, err := uc.tokenService.VerifyPurposeToken(token, outbound.PurposeEmailVerification)
	if err != nil {
		return apperror.NewUnauthorized("Invalid or expired verification token")
	}

	if err := uc.userRepository.MarkEmailVerified(ctx, claims.UserID); err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperror.NewUnauthorized("Account no longer exists")
		}
		uc.logger.Error(ctx, "Failed to mark email verified", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return apperror.NewInternalServer("Email verification failed")
	}

	uc.cacheService.Delete(ctx, cache.UserKey(claims.UserID))
	logger.LogAuthEvent(ctx, uc.logger, "email_verified", claims.UserID, true, nil)
	return nil
}

func (uc *AuthUseCase) mintTokenPair(user *entity.User) (*valueobject.TokenPair, error) {
	access, err := uc.tokenService.MintAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := uc.tokenService.MintRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &valueobject.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(uc.accessTokenTTL.Seconds()),
	}, nil
}
