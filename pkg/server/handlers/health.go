package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"graphchat/pkg/health"
	"graphchat/pkg/server/dto"
)

// Build information, set at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	probe *health.Probe
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(probe *health.Probe) *HealthHandler {
	return &HealthHandler{probe: probe}
}

// HealthCheck handles GET /health. It reports data readiness: 200 when the
// engine project looks queryable, 503 with a reason otherwise.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := h.probe.Check(c.Request.Context())

	resp := dto.HealthResponse{
		Message:   status.Message,
		RowCounts: status.RowCounts,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if status.Healthy {
		resp.Status = "healthy"
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Status = "unhealthy"
	c.JSON(http.StatusServiceUnavailable, resp)
}

// LivenessCheck handles GET /live. The process serving the request is the
// whole check.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "graphchat",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
