package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/authmodule/authmodule-api/pkg/jwt"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)

	if err := logger.Initialize(logger.Config{Level: "error", Environment: "test"}); err != nil {
		panic(err)
	}
}

func sessionRouter(tm *jwt.TokenManager) *gin.Engine {
	router := gin.New()
	router.Use(SessionMiddleware(tm, "", false))
	router.GET("/session", func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": session.UserID})
	})
	return router
}

func TestSessionMiddleware_Cookie(t *testing.T) {
	tm := jwt.NewTokenManager(testSecret, "authmodule-api", 1)
	token, _, err := tm.GenerateToken("user-1", "a@b.com", "Ann")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", http.NoBody)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	sessionRouter(tm).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1"}`, w.Body.String())
}

func TestSessionMiddleware_BearerHeader(t *testing.T) {
	tm := jwt.NewTokenManager(testSecret, "authmodule-api", 1)
	token, _, err := tm.GenerateToken("user-2", "c@d.com", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	sessionRouter(tm).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-2"}`, w.Body.String())
}

func TestSessionMiddleware_Missing(t *testing.T) {
	tm := jwt.NewTokenManager(testSecret, "authmodule-api", 1)

	w := httptest.NewRecorder()
	sessionRouter(tm).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", http.NoBody))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddleware_InvalidCookieIsCleared(t *testing.T) {
	tm := jwt.NewTokenManager(testSecret, "authmodule-api", 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", http.NoBody)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	sessionRouter(tm).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cookie := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, SessionCookieName+"=;"), cookie)
	assert.Contains(t, cookie, "HttpOnly")
}

func TestRateLimiter_Blocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := gin.New()
	router.Use(NewRateLimiter(ctx, rate.Limit(1), 2).Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", w.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(true))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestBodySizeLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimitMiddleware(8))
	router.POST("/", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestObservabilityMiddleware_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(ObservabilityMiddleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?password=x", http.NoBody))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
