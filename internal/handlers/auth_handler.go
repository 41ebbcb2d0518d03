package handlers

import (
	"net/http"

	"github.com/authmodule/authmodule-api/internal/middleware"
	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/internal/services"
	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles password authentication endpoints
type AuthHandler struct {
	service services.AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service services.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// Login handles POST /api/v1/auth/login
// Verifies email and password and creates a session
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", ParseValidationErrors(err), err)
		return
	}

	session, err := h.service.Authenticate(c.Request.Context(), models.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		status, message := statusFor(err)
		respondError(c, status, message, err)
		return
	}

	middleware.SetSessionCookie(
		c,
		session.Token,
		h.service.GetSessionTTL(),
		h.service.GetCookieDomain(),
		h.service.GetCookieSecure(),
	)

	c.JSON(http.StatusOK, models.LoginResponse{
		Success: true,
		Session: session,
		Token:   session.Token,
	})
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", ParseValidationErrors(err), err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		status, message := statusFor(err)
		if apperrors.Is(err, apperrors.ErrInvalidInput) {
			respondErrorWithDetails(c, status, message, inputErrorDetails(err), err)
			return
		}
		respondError(c, status, message, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Logout handles POST /api/v1/auth/logout
// Clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(
		c,
		h.service.GetCookieDomain(),
		h.service.GetCookieSecure(),
	)

	c.JSON(http.StatusOK, models.LogoutResponse{
		Success: true,
	})
}

// GetSession handles GET /api/v1/auth/session
// Returns the current session info (for session validation)
func (h *AuthHandler) GetSession(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session,
	})
}
