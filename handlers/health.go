package handlers

import (
	"net/http"
	"time"

	"releasegate/config"

	"github.com/gin-gonic/gin"
)

// Version of the service reported by the health endpoints
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "releasegate",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":       "Releasegate API is running",
		"reference_url": h.cfg.ReferenceURL,
		"gateway_url":   h.cfg.GatewayURL,
	})
}
