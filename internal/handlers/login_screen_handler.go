package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoginScreenHandler serves server-hosted login screens over websocket
type LoginScreenHandler struct {
	screens http.Handler
}

// NewLoginScreenHandler creates a new LoginScreenHandler around a screen server
func NewLoginScreenHandler(screens http.Handler) *LoginScreenHandler {
	return &LoginScreenHandler{screens: screens}
}

// Connect handles GET /api/v1/login-screen/ws
func (h *LoginScreenHandler) Connect(c *gin.Context) {
	h.screens.ServeHTTP(c.Writer, c.Request)
}
