package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"erpcore/internal/infrastructure/storage/postgres"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	ready   func(ctx context.Context) error
	pool    *postgres.Pool
	version string
}

// NewHealthHandler creates a new health handler. pool may be nil when the
// service runs on the in-memory store.
func NewHealthHandler(ready func(ctx context.Context) error, pool *postgres.Pool, version string) *HealthHandler {
	return &HealthHandler{ready: ready, pool: pool, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{"storage": "unhealthy: " + err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{"storage": "healthy"},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{"app": "erpcore", "version": h.version, "storage": "memory"}
	if h.pool != nil {
		info["storage"] = "postgres"
		info["database"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, info)
}
