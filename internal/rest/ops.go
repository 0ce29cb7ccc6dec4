package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 2 * time.Second

// HealthChecker is satisfied by *sql.DB
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

type OpsHandler struct {
	health  HealthChecker
	latency *middleware.LatencyRecorder
}

func NewOpsHandler(health HealthChecker, latency *middleware.LatencyRecorder) *OpsHandler {
	return &OpsHandler{
		health:  health,
		latency: latency,
	}
}

func (h *OpsHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Health)
	if h.latency != nil {
		r.GET("/debug/latency", h.Latency)
	}
}

func (h *OpsHandler) Health(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := h.health.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *OpsHandler) Latency(c *gin.Context) {
	c.JSON(http.StatusOK, h.latency.Snapshot())
}
