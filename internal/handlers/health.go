package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"design-gallery-backend/internal/config"
	"design-gallery-backend/internal/models"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	cfg *config.Config
	db  Pinger
}

// NewHealthHandler accepts a nil db when DATABASE_URL is not configured.
func NewHealthHandler(cfg *config.Config, db Pinger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db}
}

// Health godoc
// @Summary     Health check
// @Description Returns the health status of the API and its dependencies
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Failure     503 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response := models.HealthResponse{
		Status: "ok",
		Checks: map[string]string{
			"sanity":   "configured",
			"database": "disabled",
		},
	}
	status := http.StatusOK

	if !h.cfg.SanityConfigured() {
		response.Checks["sanity"] = "missing credentials"
		response.Status = "degraded"
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			response.Checks["database"] = "unreachable"
			response.Status = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			response.Checks["database"] = "ok"
		}
	}

	c.JSON(status, response)
}
