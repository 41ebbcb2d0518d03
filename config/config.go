package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Login         LoginConfig
	EventTriggers EventTriggersConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL           string
	MaxConns      int32
	MinConns      int32
	TLSCAFile     string
	TLSServerName string
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	SessionTTLHours int
	CookieDomain    string
	CookieSecure    bool
}

// LoginConfig holds the password policy and brute-force protection settings
type LoginConfig struct {
	MinPasswordLength     int
	MaxFailedAttempts     int
	LockoutMinutes        int
	RequestTimeoutSeconds int
}

type EventTriggersConfig struct {
	LoginSucceededTriggerURL string
	UserRegisteredTriggerURL string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	AlloyEndpoint     string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// ClientConfig holds configuration for the terminal login client
type ClientConfig struct {
	APIBaseURL            string
	RequestTimeoutSeconds int
	MinPasswordLength     int
	LogLevel              string
	LogDir                string
}

func newViper() *viper.Viper {
	v := viper.New()

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	return v
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := newViper()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DATABASE_TLS_CA_FILE", "certs/db-ca.crt")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "") // OTLP over HTTP, empty disables tracing
	v.SetDefault("O11Y_BE_SERVICE_NAME", "authmodule-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "authmodule")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "authmodule-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Session defaults
	v.SetDefault("JWT_ISSUER", "authmodule-api")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)

	// Login defaults
	v.SetDefault("LOGIN_MIN_PASSWORD_LENGTH", 6)
	v.SetDefault("LOGIN_MAX_FAILED_ATTEMPTS", 5)
	v.SetDefault("LOGIN_LOCKOUT_MINUTES", 15)
	v.SetDefault("LOGIN_REQUEST_TIMEOUT_SECONDS", 10)

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:           v.GetString("DATABASE_URL"),
			MaxConns:      v.GetInt32("DB_MAX_CONNS"),
			MinConns:      v.GetInt32("DB_MIN_CONNS"),
			TLSCAFile:     v.GetString("DATABASE_TLS_CA_FILE"),
			TLSServerName: v.GetString("DATABASE_TLS_SERVER_NAME"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			JWTIssuer:       v.GetString("JWT_ISSUER"),
			SessionTTLHours: v.GetInt("SESSION_TTL_HOURS"),
			CookieDomain:    v.GetString("COOKIE_DOMAIN"),
			CookieSecure:    v.GetBool("COOKIE_SECURE"),
		},
		Login: LoginConfig{
			MinPasswordLength:     v.GetInt("LOGIN_MIN_PASSWORD_LENGTH"),
			MaxFailedAttempts:     v.GetInt("LOGIN_MAX_FAILED_ATTEMPTS"),
			LockoutMinutes:        v.GetInt("LOGIN_LOCKOUT_MINUTES"),
			RequestTimeoutSeconds: v.GetInt("LOGIN_REQUEST_TIMEOUT_SECONDS"),
		},
		EventTriggers: EventTriggersConfig{
			LoginSucceededTriggerURL: v.GetString("LOGIN_SUCCEEDED_TRIGGER_URL"),
			UserRegisteredTriggerURL: v.GetString("USER_REGISTERED_TRIGGER_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			AlloyEndpoint:     v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	if err := c.Login.Validate(); err != nil {
		return err
	}

	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// Validate checks the login policy values
func (l LoginConfig) Validate() error {
	if l.MinPasswordLength < 1 {
		return fmt.Errorf("LOGIN_MIN_PASSWORD_LENGTH must be at least 1")
	}
	if l.MaxFailedAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_FAILED_ATTEMPTS must be at least 1")
	}
	if l.LockoutMinutes < 1 {
		return fmt.Errorf("LOGIN_LOCKOUT_MINUTES must be at least 1")
	}
	if l.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("LOGIN_REQUEST_TIMEOUT_SECONDS must be at least 1")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// LoadClient reads the terminal client configuration
func LoadClient() (*ClientConfig, error) {
	v := newViper()

	v.SetDefault("AUTH_API_BASE_URL", "http://localhost:8081")
	v.SetDefault("AUTH_CLIENT_TIMEOUT_SECONDS", 15)
	v.SetDefault("LOGIN_MIN_PASSWORD_LENGTH", 6)
	v.SetDefault("AUTH_CLIENT_LOG_LEVEL", "info")
	v.SetDefault("AUTH_CLIENT_LOG_DIR", ".authmodule/logs")

	cfg := &ClientConfig{
		APIBaseURL:            strings.TrimRight(v.GetString("AUTH_API_BASE_URL"), "/"),
		RequestTimeoutSeconds: v.GetInt("AUTH_CLIENT_TIMEOUT_SECONDS"),
		MinPasswordLength:     v.GetInt("LOGIN_MIN_PASSWORD_LENGTH"),
		LogLevel:              v.GetString("AUTH_CLIENT_LOG_LEVEL"),
		LogDir:                v.GetString("AUTH_CLIENT_LOG_DIR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the terminal client configuration
func (c *ClientConfig) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("AUTH_API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("AUTH_API_BASE_URL must start with http:// or https://")
	}
	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("AUTH_CLIENT_TIMEOUT_SECONDS must be at least 1")
	}
	if c.MinPasswordLength < 1 {
		return fmt.Errorf("LOGIN_MIN_PASSWORD_LENGTH must be at least 1")
	}
	return nil
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
