package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/pkg/circuitbreaker"
	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/authmodule/authmodule-api/pkg/httpclient"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/retry"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := logger.Initialize(logger.Config{Level: "error", Environment: "test"}); err != nil {
		panic(err)
	}
}

func fastRetry(maxRetries int) Option {
	return WithRetryConfig(retry.Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	return New(ts.URL, httpclient.NewStandardClient("authmodule-test", time.Second), opts...), &calls
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_AuthenticateSuccess(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, loginPath, r.URL.Path)
		assert.Equal(t, "authmodule-test", r.Header.Get("User-Agent"))

		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "secret1", req.Password)

		writeJSON(w, http.StatusOK, models.LoginResponse{
			Success: true,
			Session: &models.Session{UserID: "u-1", Email: "a@b.com", Name: "Ann"},
			Token:   "tok",
		})
	})

	session, err := client.Authenticate(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.Equal(t, "Ann", session.Name)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, apperrors.ErrInvalidCredentials},
		{http.StatusForbidden, apperrors.ErrAccountDisabled},
		{http.StatusLocked, apperrors.ErrAccountLocked},
		{http.StatusTooManyRequests, apperrors.ErrRateLimited},
		{http.StatusConflict, apperrors.ErrConflict},
		{http.StatusBadRequest, apperrors.ErrInvalidInput},
		{http.StatusInternalServerError, apperrors.ErrUnavailable},
		{http.StatusBadGateway, apperrors.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"success": false, "error": "nope"})
			}, fastRetry(0))

			_, err := client.Authenticate(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_RetriesUnavailable(t *testing.T) {
	var attempts atomic.Int32
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "warming up"})
			return
		}
		writeJSON(w, http.StatusOK, models.LoginResponse{Success: true, Session: &models.Session{UserID: "u-1"}, Token: "tok"})
	}, fastRetry(2))

	session, err := client.Authenticate(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RejectionsAreNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid email or password"})
	}, fastRetry(3))

	_, err := client.Authenticate(context.Background(), models.Credentials{Email: "a@b.com", Password: "wrong12"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Equal(t, int32(1), calls.Load())
}

func tripAfterTwo() Option {
	cfg := circuitbreaker.DefaultConfig("auth-api-test")
	cfg.Timeout = time.Minute
	cfg.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 2
	}
	cfg.OnStateChange = nil
	return WithBreakerConfig(cfg)
}

func TestClient_BreakerOpensOnOutage(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, fastRetry(0), tripAfterTwo())

	creds := models.Credentials{Email: "a@b.com", Password: "secret1"}
	for i := 0; i < 2; i++ {
		_, err := client.Authenticate(context.Background(), creds)
		require.ErrorIs(t, err, apperrors.ErrUnavailable)
	}

	_, err := client.Authenticate(context.Background(), creds)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_WrongPasswordsDoNotTripBreaker(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 5 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, models.LoginResponse{Success: true, Session: &models.Session{UserID: "u-1"}, Token: "tok"})
	}, fastRetry(0), tripAfterTwo())

	creds := models.Credentials{Email: "a@b.com", Password: "secret1"}
	for i := 0; i < 5; i++ {
		_, err := client.Authenticate(context.Background(), creds)
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	_, err := client.Authenticate(context.Background(), creds)
	assert.NoError(t, err)
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}, fastRetry(2))
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Authenticate(ctx, models.Credentials{Email: "a@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_MissingSessionIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, fastRetry(0))

	_, err := client.Authenticate(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestClient_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, registerPath, r.URL.Path)
			writeJSON(w, http.StatusCreated, models.RegisterResponse{Success: true, UserID: "u-2", Message: "Account created"})
		}, fastRetry(0))

		resp, err := client.Register(context.Background(), &models.RegisterRequest{Email: "a@b.com", Name: "Ann", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "u-2", resp.UserID)
	})

	t.Run("validation details", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Validation failed",
				"details": []map[string]string{{"field": "credentials", "message": "Password must be at least 6 characters"}},
			})
		}, fastRetry(0))

		_, err := client.Register(context.Background(), &models.RegisterRequest{Email: "a@b.com", Name: "Ann", Password: "123"})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "Password must be at least 6 characters")
	})
}
