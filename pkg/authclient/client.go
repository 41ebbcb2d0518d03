package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/pkg/circuitbreaker"
	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/authmodule/authmodule-api/pkg/httpclient"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	loginPath    = "/api/v1/auth/login"
	registerPath = "/api/v1/auth/register"

	// maxErrorBody caps how much of an error response is read
	maxErrorBody = 64 << 10
)

// Client talks to the auth API over HTTP
type Client struct {
	baseURL string
	http    httpclient.Client
	breaker *gobreaker.CircuitBreaker
	retry   retry.Config
}

// Option configures a Client
type Option func(*Client)

// WithRetryConfig overrides the retry policy. The retryable predicate is kept.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		cfg.RetryableErrors = c.retry.RetryableErrors
		c.retry = cfg
	}
}

// WithBreakerConfig overrides the circuit breaker settings. IsSuccessful is kept.
func WithBreakerConfig(cfg circuitbreaker.Config) Option {
	return func(c *Client) {
		cfg.IsSuccessful = countsAsSuccess
		c.breaker = circuitbreaker.NewCircuitBreaker(cfg)
	}
}

// New creates a client for the auth API rooted at baseURL
func New(baseURL string, httpClient httpclient.Client, opts ...Option) *Client {
	breakerCfg := circuitbreaker.DefaultConfig("auth-api")
	breakerCfg.IsSuccessful = countsAsSuccess

	c := &Client{
		baseURL: baseURL,
		http:    httpClient,
		breaker: circuitbreaker.NewCircuitBreaker(breakerCfg),
		retry:   retry.AuthAPIConfig(isRetryable),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Only transport failures trip the breaker; a wrong password is a healthy answer.
func countsAsSuccess(err error) bool {
	return err == nil || !errors.Is(err, apperrors.ErrUnavailable)
}

func isRetryable(err error) bool {
	return errors.Is(err, apperrors.ErrUnavailable) && !circuitbreaker.IsRejection(err)
}

// Authenticate verifies credentials against POST /api/v1/auth/login
func (c *Client) Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	req := models.LoginRequest{Email: creds.Email, Password: creds.Password}

	var resp models.LoginResponse
	if err := c.call(ctx, "login", loginPath, req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	if resp.Session == nil {
		return nil, apperrors.UnavailableError("login", errors.New("response without session"))
	}

	session := *resp.Session
	session.Token = resp.Token
	return &session, nil
}

// Register creates an account via POST /api/v1/auth/register
func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	var resp models.RegisterResponse
	if err := c.call(ctx, "register", registerPath, req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// call runs one logical request through the retry policy and the breaker
func (c *Client) call(ctx context.Context, operation, path string, body any, wantStatus int, out any) error {
	start := time.Now()

	_, err := retry.DoWithResult(ctx, c.retry, "auth_api_"+operation, func() (struct{}, error) {
		_, err := circuitbreaker.Execute(c.breaker, func() (struct{}, error) {
			return struct{}{}, c.post(ctx, operation, path, body, wantStatus, out)
		})
		if circuitbreaker.IsRejection(err) {
			return struct{}{}, fmt.Errorf("%s: %w: %w", operation, apperrors.ErrUnavailable,
				circuitbreaker.FormatError("auth-api", err))
		}
		return struct{}{}, err
	})

	duration := time.Since(start).Seconds()
	if err != nil {
		status := "error"
		if !errors.Is(err, apperrors.ErrUnavailable) {
			status = "rejected"
		}
		logger.LogAPICall("auth_api", operation, status, duration, zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	logger.LogAPICall("auth_api", operation, "success", duration)
	return nil
}

// post performs a single HTTP attempt
func (c *Client) post(ctx context.Context, operation, path string, body any, wantStatus int, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.UnavailableError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == wantStatus {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.UnavailableError(operation, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	return statusError(operation, resp)
}

// errorBody mirrors the API's error envelope
type errorBody struct {
	Error   string `json:"error"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

// statusError maps a non-success response to an application error
func statusError(operation string, resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrInvalidCredentials
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.ErrAccountDisabled
	case resp.StatusCode == http.StatusLocked:
		return apperrors.ErrAccountLocked
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	case resp.StatusCode == http.StatusConflict:
		return apperrors.ConflictError("user")
	case resp.StatusCode == http.StatusBadRequest:
		if len(body.Details) > 0 {
			return apperrors.InvalidInputError(body.Details[0].Field, body.Details[0].Message)
		}
		return apperrors.InvalidInputError("request", body.Error)
	case resp.StatusCode >= 500:
		return apperrors.UnavailableError(operation, fmt.Errorf("status %d: %s", resp.StatusCode, body.Error))
	default:
		return fmt.Errorf("%s: unexpected status %d", operation, resp.StatusCode)
	}
}
