package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/authmodule/authmodule-api/config"
	"github.com/authmodule/authmodule-api/internal/cache"
	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/internal/repository"
	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/authmodule/authmodule-api/pkg/httpclient"
	"github.com/authmodule/authmodule-api/pkg/jwt"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/metrics"
	"github.com/authmodule/authmodule-api/pkg/tracing"
	"github.com/authmodule/authmodule-api/pkg/trigger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PasswordParams are the argon2id parameters for stored password hashes
var PasswordParams = &argon2id.Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// AuthService handles password login and registration
type AuthService struct {
	users        repository.UserRepositoryInterface
	attempts     cache.LoginAttemptsCacheInterface
	rules        login.Rules
	config       *config.Config
	tokenManager *jwt.TokenManager
	httpClient   httpclient.Client
	params       *argon2id.Params
	// compared against when the email is unknown so both paths cost one hash
	dummyHash string
	now       func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repository.UserRepositoryInterface,
	attempts cache.LoginAttemptsCacheInterface,
	rules login.Rules,
	cfg *config.Config,
	httpClient httpclient.Client,
) (*AuthService, error) {
	return newAuthService(users, attempts, rules, cfg, httpClient, PasswordParams)
}

func newAuthService(
	users repository.UserRepositoryInterface,
	attempts cache.LoginAttemptsCacheInterface,
	rules login.Rules,
	cfg *config.Config,
	httpClient httpclient.Client,
	params *argon2id.Params,
) (*AuthService, error) {
	dummyHash, err := argon2id.CreateHash(uuid.NewString(), params)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}

	return &AuthService{
		users:    users,
		attempts: attempts,
		rules:    rules,
		config:   cfg,
		tokenManager: jwt.NewTokenManager(
			cfg.Auth.JWTSecret,
			cfg.Auth.JWTIssuer,
			cfg.Auth.SessionTTLHours,
		),
		httpClient: httpClient,
		params:     params,
		dummyHash:  dummyHash,
		now:        time.Now,
	}, nil
}

// Authenticate verifies an email/password pair and issues a session.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, creds models.Credentials) (session *models.Session, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "auth.authenticate")
	defer func() { tracing.EndSpan(span, err) }()

	email := repository.NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		metrics.AuthLoginRequests.WithLabelValues("invalid_input").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if locked, remaining := s.attempts.IsLocked(email); locked {
		logger.Warn("Login attempt for locked account",
			zap.Duration("remaining", remaining))
		metrics.AuthLoginRequests.WithLabelValues("locked").Inc()
		return nil, apperrors.ErrAccountLocked
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to look up user", zap.Error(err))
			metrics.AuthLoginRequests.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		_, _ = argon2id.ComparePasswordAndHash(creds.Password, s.dummyHash) //nolint:errcheck // timing equalization only
		return nil, s.rejectPassword(email)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	if !user.CanSignIn() {
		logger.Warn("Login attempt for disabled account", zap.String("user_id", user.ID))
		metrics.AuthLoginRequests.WithLabelValues("disabled").Inc()
		return nil, apperrors.ErrAccountDisabled
	}

	match, err := argon2id.ComparePasswordAndHash(creds.Password, user.PasswordHash)
	if err != nil {
		logger.Error("Failed to verify password hash", zap.String("user_id", user.ID), zap.Error(err))
		metrics.AuthLoginRequests.WithLabelValues("error").Inc()
		return nil, apperrors.InternalError("password verification failed")
	}
	if !match {
		return nil, s.rejectPassword(email)
	}

	s.attempts.Reset(email)

	token, claims, err := s.tokenManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		logger.Error("Failed to generate JWT", zap.String("user_id", user.ID), zap.Error(err))
		metrics.AuthLoginRequests.WithLabelValues("jwt_failed").Inc()
		return nil, fmt.Errorf("failed to generate session: %w", err)
	}

	if recordErr := s.users.RecordLogin(ctx, user.ID, s.now()); recordErr != nil {
		// Continue with login even if the stamp fails
		logger.Error("Failed to record last login", zap.String("user_id", user.ID), zap.Error(recordErr))
	}

	trigger.CallAsync(s.config.EventTriggers.LoginSucceededTriggerURL, trigger.Payload{
		Type:   trigger.EventLoginSucceeded,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, s.httpClient)

	duration := metrics.MeasureDuration(start)
	metrics.AuthLoginDuration.Observe(duration)
	metrics.AuthLoginRequests.WithLabelValues("success").Inc()

	logger.Info("Login successful",
		zap.String("user_id", user.ID),
		zap.Duration("duration", time.Since(start)))

	return &models.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		ExpiresAt: claims.ExpiresAt.Unix(),
		IssuedAt:  claims.IssuedAt.Unix(),
		Token:     token,
	}, nil
}

// rejectPassword counts a failed attempt. The attempt that reaches the limit
// reports the lock so the user learns about it right away.
func (s *AuthService) rejectPassword(email string) error {
	if s.attempts.RegisterFailure(email) {
		metrics.AuthLockouts.Inc()
		metrics.AuthLoginRequests.WithLabelValues("locked").Inc()
		return apperrors.ErrAccountLocked
	}
	metrics.AuthLoginRequests.WithLabelValues("invalid_credentials").Inc()
	return apperrors.ErrInvalidCredentials
}

// Register creates an account. Input is checked with the same rules as the login screen.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (resp *models.RegisterResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "auth.register")
	defer func() { tracing.EndSpan(span, err) }()

	if hint, invalid := s.rules.Check(req.Email, req.Password).Get(); invalid {
		metrics.UserRegistrations.WithLabelValues("invalid_input").Inc()
		return nil, apperrors.InvalidInputError("credentials", hint)
	}

	hash, err := argon2id.CreateHash(req.Password, s.params)
	if err != nil {
		metrics.UserRegistrations.WithLabelValues("error").Inc()
		return nil, apperrors.InternalError("failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Status:       models.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.UserRegistrations.WithLabelValues("conflict").Inc()
			return nil, err
		}
		logger.Error("Failed to create user", zap.Error(err))
		metrics.UserRegistrations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	trigger.CallAsync(s.config.EventTriggers.UserRegisteredTriggerURL, trigger.Payload{
		Type:   trigger.EventUserRegistered,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, s.httpClient)

	metrics.UserRegistrations.WithLabelValues("success").Inc()
	logger.Info("User registered", zap.String("user_id", user.ID))

	return &models.RegisterResponse{
		Success: true,
		UserID:  user.ID,
		Message: "Account created",
	}, nil
}

// GetSessionTTL returns the session TTL in seconds
func (s *AuthService) GetSessionTTL() int {
	return s.config.Auth.SessionTTLHours * 3600
}

// GetCookieDomain returns the cookie domain
func (s *AuthService) GetCookieDomain() string {
	return s.config.Auth.CookieDomain
}

// GetCookieSecure returns whether cookies should be secure
func (s *AuthService) GetCookieSecure() bool {
	return s.config.Auth.CookieSecure
}

// GetTokenManager returns the JWT token manager
func (s *AuthService) GetTokenManager() *jwt.TokenManager {
	return s.tokenManager
}
