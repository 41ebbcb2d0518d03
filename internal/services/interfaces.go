package services

import (
	"context"

	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/pkg/jwt"
)

// AuthServiceInterface defines the interface for password authentication
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error)
	GetSessionTTL() int
	GetCookieDomain() string
	GetCookieSecure() bool
	GetTokenManager() *jwt.TokenManager
}

// HealthCheckerInterface reports whether the service dependencies are reachable
type HealthCheckerInterface interface {
	Ping(ctx context.Context) error
}
