package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userboard-api/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the service banner and health check
type SystemHandler struct {
	appName     string
	serviceName string
	store       Pinger
	log         *zap.Logger
}

// NewSystemHandler creates a new SystemHandler instance
func NewSystemHandler(appName, serviceName string, store Pinger, log *zap.Logger) *SystemHandler {
	return &SystemHandler{
		appName:     appName,
		serviceName: serviceName,
		store:       store,
		log:         log,
	}
}

// Root handles GET /
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("%s is running", h.appName)})
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.WithContext(ctx, h.log).Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": h.serviceName,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.serviceName,
	})
}
