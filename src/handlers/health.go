package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Version is reported by /info and overridden at build time
var Version = "dev"

// Pinger is any backing store that can report its health
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	stores map[string]Pinger
}

// NewHealthHandler creates a new health handler over the named stores
func NewHealthHandler(stores map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		stores: stores,
	}
}

// check pings every store and returns per-store latency, or the first failure
func (hh *HealthHandler) check(ctx context.Context) (map[string]string, string, error) {
	names := make([]string, 0, len(hh.stores))
	for name := range hh.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	latency := make(map[string]string, len(names))
	for _, name := range names {
		start := time.Now()
		if err := hh.stores[name].Health(ctx); err != nil {
			return latency, name, err
		}
		latency[name] = time.Since(start).String()
	}
	return latency, "", nil
}

// HandleHealth returns health status with a check of every store
func (hh *HealthHandler) HandleHealth(c *gin.Context) {
	latency, failed, err := hh.check(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"store":    failed,
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"database":   "connected",
		"db_latency": latency,
		"uptime":     time.Since(startTime).String(),
	})
}

// HandleInfo returns service information
func (hh *HealthHandler) HandleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "portfolio-site",
		"version": Version,
		"status":  "running",
		"uptime":  time.Since(startTime).String(),
	})
}

// HandleReady returns readiness status (for load balancers)
func (hh *HealthHandler) HandleReady(c *gin.Context) {
	if _, _, err := hh.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ready": true,
	})
}
