package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/authmodule/authmodule-api/internal/services"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db services.HealthCheckerInterface
}

func NewHealthHandler(db services.HealthCheckerInterface) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		attachError(c, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"reason": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
