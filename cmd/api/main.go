package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/authmodule/authmodule-api/config"
	"github.com/authmodule/authmodule-api/internal/cache"
	"github.com/authmodule/authmodule-api/internal/database/postgres"
	"github.com/authmodule/authmodule-api/internal/handlers"
	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/internal/middleware"
	"github.com/authmodule/authmodule-api/internal/repository"
	"github.com/authmodule/authmodule-api/internal/screen"
	"github.com/authmodule/authmodule-api/internal/services"
	"github.com/authmodule/authmodule-api/pkg/db"
	"github.com/authmodule/authmodule-api/pkg/httpclient"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/metrics"
	"github.com/authmodule/authmodule-api/pkg/profiling"
	"github.com/authmodule/authmodule-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// registerAuthRoutes registers login, registration and session routes
func registerAuthRoutes(
	router *gin.Engine,
	authService services.AuthServiceInterface,
	generalRateLimiter, loginRateLimiter, registrationRateLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	loginScreenHandler *handlers.LoginScreenHandler,
) {
	auth := router.Group("/api/v1/auth")
	auth.POST("/login", loginRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(16*1024), authHandler.Login)
	auth.POST("/register", registrationRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(16*1024), authHandler.Register)
	auth.POST("/logout", generalRateLimiter.Middleware(), authHandler.Logout)
	auth.GET("/session",
		generalRateLimiter.Middleware(),
		middleware.SessionMiddleware(authService.GetTokenManager(), authService.GetCookieDomain(), authService.GetCookieSecure()),
		authHandler.GetSession,
	)

	// Server-hosted login screen. The IP limiter guards the upgrade; each connection
	// then gets its own submit budget (screen.Server.WithSubmitRate).
	router.GET("/api/v1/login-screen/ws", loginRateLimiter.Middleware(), loginScreenHandler.Connect)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting auth API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	identity := tracing.Identity{
		ServiceName: cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		InstanceID:  cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	}

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(identity, cfg.Observability.AlloyEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Continuous profiling is optional
	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, identity)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	// Initialize metrics with service name from config
	metrics.Init(cfg.Observability.ServiceName)

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Initialize PostgreSQL connection pool
	pool, err := db.NewPool(context.Background(), db.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
		TLS: db.TLSConfig{
			CAFile:     cfg.Database.TLSCAFile,
			ServerName: cfg.Database.TLSServerName,
		},
	})
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer db.Close(pool)

	// NOTE: Database migrations are run separately via the migrate command

	dbClient := postgres.NewClient(pool)
	userRepo := repository.NewUserRepository(dbClient)
	loginAttempts := cache.NewLoginAttemptsCache(
		cfg.Login.MaxFailedAttempts,
		time.Duration(cfg.Login.LockoutMinutes)*time.Minute,
	)

	// Initialize HTTP client for event triggers
	httpClient := httpclient.NewStandardClient("authmodule-api/"+cfg.Observability.ServiceVersion, 10*time.Second)

	rules := login.NewInputRules(cfg.Login.MinPasswordLength)

	authService, err := services.NewAuthService(userRepo, loginAttempts, rules, cfg, httpClient)
	if err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	screens := screen.NewServer(authService, rules, cfg.Server.AllowedOrigins,
		login.WithLoginTimeout(time.Duration(cfg.Login.RequestTimeoutSeconds)*time.Second),
	).WithSubmitRate(rate.Every(2*time.Second), 5) // 1 attempt / 2s per connection, burst of 5

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	loginScreenHandler := handlers.NewLoginScreenHandler(screens)
	healthHandler := handlers.NewHealthHandler(dbClient)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))

	// CORS configuration - SECURITY: Only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	// Allow localhost in development
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true, // Required for session cookies
		MaxAge:           12 * time.Hour,
	}))

	// SECURITY: Rate limiters to prevent abuse and credential stuffing
	limiterCtx, stopLimiters := context.WithCancel(context.Background())
	defer stopLimiters()
	generalRateLimiter := middleware.NewRateLimiter(limiterCtx, 100, 200)        // 100 req/sec, burst of 200
	loginRateLimiter := middleware.NewRateLimiter(limiterCtx, 1, 10)             // 1 req/sec, burst of 10
	registrationRateLimiter := middleware.NewRateLimiter(limiterCtx, 0.00667, 3) // 2 req/5min (0.00667 req/sec), burst of 3

	// API routes
	api := router.Group("/api")
	// Utility endpoints (not versioned - operational endpoints)
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	registerAuthRoutes(router, authService, generalRateLimiter, loginRateLimiter, registrationRateLimiter,
		authHandler, loginScreenHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // SECURITY: 1 MB max header size
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
