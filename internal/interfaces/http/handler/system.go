package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves liveness and readiness probes
type SystemHandler struct {
	BaseHandler
	db      Pinger
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version}
}

// Ping is the liveness probe
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}

// Health pings the database and reports readiness
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, database := "healthy", "connected"
	code := http.StatusOK
	if h.db == nil {
		database = "not configured"
	} else if err := h.db.PingContext(ctx); err != nil {
		status, database = "unhealthy", "disconnected"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, dto.Response{
		Success: code == http.StatusOK,
		Data: gin.H{
			"status":   status,
			"time":     time.Now().UTC().Format(time.RFC3339),
			"database": database,
			"version":  h.version,
		},
	})
}
