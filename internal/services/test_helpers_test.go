package services_test

import (
	"github.com/authmodule/authmodule-api/config"
	"github.com/authmodule/authmodule-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{AppEnv: "development"},
		Auth: config.AuthConfig{
			JWTSecret:       "0123456789abcdef0123456789abcdef",
			JWTIssuer:       "authmodule-api",
			SessionTTLHours: 24,
			CookieDomain:    "example.com",
			CookieSecure:    true,
		},
		Login: config.LoginConfig{
			MinPasswordLength:     6,
			MaxFailedAttempts:     5,
			LockoutMinutes:        15,
			RequestTimeoutSeconds: 10,
		},
	}
}
